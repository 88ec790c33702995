package loadgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/diploma/pkg/logger"
)

// pollInterval paces the wait for queued transcripts.
const pollInterval = 200 * time.Millisecond

// percentageMultiplier converts ratios into percentages.
const percentageMultiplier = 100

// ErrTimeout is returned when the service does not drain in time.
var ErrTimeout = errors.New("timed out waiting for processing")

// Run executes a complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("loadgen")
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting diploma load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("students", cfg.Students),
		logger.Int("workers", cfg.Workers),
		logger.Int("topN", cfg.TopN),
	)

	if err := client.Healthy(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	catalog, err := client.Catalog(ctx)
	if err != nil {
		return stats, fmt.Errorf("catalog retrieval failed: %w", err)
	}
	baseline, err := client.Processed(ctx)
	if err != nil {
		return stats, fmt.Errorf("stats retrieval failed: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // non-negative clock value
	}
	transcripts := NewGenerator(catalog.Definitions(), seed).Transcripts(cfg.Students)
	stats.Generated = len(transcripts)

	Submit(ctx, client, transcripts, cfg.Workers, stats)

	if err := waitForProcessing(ctx, client, baseline+int64(stats.Accepted), cfg.Wait); err != nil {
		return stats, err
	}

	cohort, err := client.Cohort(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("cohort retrieval failed: %w", err)
	}
	if err := VerifyCohort(cohort); err != nil {
		return stats, err
	}
	log.Info(ctx, "cohort order verified", logger.Int("entries", len(cohort)))

	sample := min(cfg.Sample, len(transcripts))
	for _, t := range transcripts[:sample] {
		standing, err := client.Student(ctx, t.StudentID)
		if err != nil {
			stats.Mismatched++
			if cfg.Verbose {
				log.Warn(ctx, "student lookup failed", logger.String("student_id", t.StudentID), logger.Error(err))
			}
			continue
		}
		if err := VerifyStanding(catalog, t, standing); err != nil {
			stats.Mismatched++
			log.Warn(ctx, "student mismatch", logger.Error(err))
			continue
		}
		stats.Verified++
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)

	if stats.Mismatched > 0 {
		return stats, fmt.Errorf("%w: %d of %d sampled students disagree", ErrVerification, stats.Mismatched, sample)
	}
	return stats, nil
}

// waitForProcessing polls /stats until target transcripts are finished.
func waitForProcessing(ctx context.Context, c *Client, target int64, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		done, err := c.Processed(ctx)
		if err == nil && done >= target {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("generated", stats.Generated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Int("mismatched", stats.Mismatched),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("transcriptsPerSecond", perSecond),
	)
}

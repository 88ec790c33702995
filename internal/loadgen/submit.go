package loadgen

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/diploma/pkg/logger"
)

// channelMultiplier sizes the hand-off channel relative to the worker count.
const channelMultiplier = 2

// Submit posts transcripts concurrently and records outcomes in stats.
func Submit(ctx context.Context, c *Client, transcripts []Transcript, workers int, stats *Stats) {
	if workers < 1 {
		workers = 1
	}
	log := logger.Get().Named("loadgen")
	log.Info(ctx, "submitting transcripts", logger.Int("count", len(transcripts)), logger.Int("workers", workers))

	var accepted, duplicate, failed atomic.Int64
	work := make(chan Transcript, workers*channelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range work {
				switch c.Submit(ctx, t) {
				case OutcomeAccepted:
					accepted.Add(1)
				case OutcomeDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
					log.Debug(ctx, "submission failed", logger.String("student_id", t.StudentID))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, t := range transcripts {
			select {
			case <-ctx.Done():
				return
			case work <- t:
			}
		}
	}()
	wg.Wait()

	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	stats.Submitted = stats.Accepted + stats.Duplicate + stats.Failed

	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
	)
}

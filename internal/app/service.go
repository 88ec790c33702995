// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	transcriptqueue "github.com/okian/diploma/internal/adapters/mq/queue"
	workerpool "github.com/okian/diploma/internal/adapters/mq/worker"
	repository "github.com/okian/diploma/internal/adapters/repository"
	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/dedupe"
	"github.com/okian/diploma/internal/domain/model"
	"github.com/okian/diploma/internal/domain/types"
	"github.com/okian/diploma/pkg/logger"
	"github.com/okian/diploma/pkg/metrics"
)

// ErrNotStarted is returned by read operations before Start.
var ErrNotStarted = errors.New("service not started")

// Service implements the API dependencies for the graduation tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog *credits.Catalog
	cohort  *repository.CohortStore
	deduper dedupe.Deduper
	queue   *transcriptqueue.InMemoryQueue
	pool    *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	topSubjects int
	now         func() time.Time

	// State
	started   bool
	startedAt time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the transcript queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTopSubjects sets the length of the top-subjects ranking in stored reports.
func WithTopSubjects(n int) Option {
	return func(s *Service) {
		s.topSubjects = n
	}
}

// WithCatalog replaces the built-in subject catalog.
func WithCatalog(c *credits.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used to stamp submissions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		catalog:     credits.DefaultCatalog(),
		workerCount: runtime.NumCPU() * 2,
		queueSize:   50000,
		dedupeSize:  200000,
		topSubjects: 3,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting graduation service...")

	s.cohort = repository.NewCohortStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = transcriptqueue.NewInMemoryQueue(
		transcriptqueue.WithCapacity(s.queueSize),
		transcriptqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.catalog, s.cohort,
		workerpool.WithTopSubjects(s.topSubjects),
	)
	s.pool.Start(ctx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "graduation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("subjects", s.catalog.Len()),
		logger.Float64("totalCreditsRequired", s.catalog.TotalCreditsRequired()),
	)
	return nil
}

// Stop drains queued transcripts and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping graduation service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	_ = s.cohort.Close()

	s.started = false
	s.logger.Info(ctx, "graduation service stopped")
}

// Catalog returns the subject catalog used for every evaluation.
func (s *Service) Catalog() *credits.Catalog {
	return s.catalog
}

// Evaluate computes a report synchronously without touching stored state.
func (s *Service) Evaluate(ctx context.Context, verified, pending credits.XPMap, top int) (credits.Report, error) {
	start := time.Now()
	report, err := s.catalog.Evaluate(verified, pending, top)
	if err != nil {
		metrics.RecordEvaluationError(credits.ErrorKind(err))
		if s.logger != nil {
			s.logger.Debug(ctx, "evaluation rejected", logger.Error(err))
		}
		return credits.Report{}, err
	}
	metrics.RecordEvaluation("api", report.Summary.TotalCreditsEarned, float64(time.Since(start).Microseconds())/1000)
	return report, nil
}

// NewSubmissionID returns a fresh submission id.
func (s *Service) NewSubmissionID() string {
	return uuid.NewString()
}

// SeenAndRecord atomically checks if a submission id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	if s.deduper == nil {
		return false
	}
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordTranscriptDuplicate()
	}
	return seen
}

// Unrecord forgets a submission id so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	if s.deduper != nil {
		s.deduper.Unrecord(ctx, id)
	}
}

// Size returns the current number of remembered submission ids.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a transcript for asynchronous evaluation. It returns false
// on backpressure or when the service is not running.
func (s *Service) Enqueue(ctx context.Context, t model.Transcript) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return false
	}
	if t.SubmittedAt.IsZero() {
		t.SubmittedAt = s.now()
	}
	if !s.queue.Enqueue(ctx, t) {
		s.logger.Warn(ctx, "transcript queue full",
			logger.String("submission_id", t.SubmissionID),
			logger.String("student_id", t.StudentID),
		)
		return false
	}
	metrics.RecordTranscriptAccepted()
	s.logger.Debug(ctx, "transcript enqueued",
		logger.String("submission_id", t.SubmissionID),
		logger.String("student_id", t.StudentID),
	)
	return true
}

// TopN returns the top N students by verified credits.
func (s *Service) TopN(ctx context.Context, n int) ([]types.CohortEntry, error) {
	cohort, err := s.store()
	if err != nil {
		return nil, err
	}
	entries, err := cohort.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.CohortEntry, len(entries))
	for i, e := range entries {
		out[i] = types.CohortEntry{
			Rank:              e.Rank,
			StudentID:         e.StudentID,
			CreditsEarned:     e.Credits,
			MeetsRequirements: e.MeetsRequirements,
		}
	}
	return out, nil
}

// Student returns the latest stored evaluation and standing of a student.
func (s *Service) Student(ctx context.Context, studentID string) (types.StudentStanding, error) {
	cohort, err := s.store()
	if err != nil {
		return types.StudentStanding{}, err
	}
	rec, err := cohort.Get(ctx, studentID)
	if err != nil {
		return types.StudentStanding{}, err
	}
	entry, err := cohort.Rank(ctx, studentID)
	if err != nil {
		return types.StudentStanding{}, err
	}
	pos, err := cohort.Position(ctx, studentID)
	if err != nil {
		return types.StudentStanding{}, err
	}

	return types.StudentStanding{
		StudentID:    rec.StudentID,
		SubmissionID: rec.SubmissionID,
		Rank:         entry.Rank,
		Position:     pos,
		CohortSize:   cohort.Count(ctx),
		Report:       rec.Report,
		SubmittedAt:  rec.SubmittedAt,
		EvaluatedAt:  rec.EvaluatedAt,
	}, nil
}

func (s *Service) store() (*repository.CohortStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cohort == nil {
		return nil, ErrNotStarted
	}
	return s.cohort, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":              s.started,
		"workerCount":          s.workerCount,
		"queueSize":            s.queueSize,
		"dedupeSize":           s.dedupeSize,
		"subjects":             s.catalog.Len(),
		"totalCreditsRequired": s.catalog.TotalCreditsRequired(),
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		students := s.cohort.Count(ctx)
		ready := s.cohort.ReadyCount(ctx)

		stats["queueLength"] = queueLen
		stats["students"] = students
		stats["studentsReady"] = ready
		stats["processed"] = s.pool.Processed()
		stats["failed"] = s.pool.Failed()
		stats["dedupeEntries"] = s.deduper.Size()
		stats["uptimeSeconds"] = int64(s.now().Sub(s.startedAt).Seconds())

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStudentsTotal(students)
		metrics.UpdateStudentsReady(ready)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

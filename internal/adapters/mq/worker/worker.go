package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/model"
	"github.com/okian/diploma/pkg/logger"
	"github.com/okian/diploma/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultTopSubjects      = 3
	poolShutdownTimeout     = 30 * time.Second
)

// Transcript abstracts what workers read off the queue.
type Transcript = model.Transcript

// Evaluator turns XP maps into a report. *credits.Catalog implements it.
type Evaluator interface {
	Evaluate(verified, pending credits.XPMap, top int) (credits.Report, error)
}

// Recorder stores the latest evaluation for a student.
type Recorder interface {
	Upsert(ctx context.Context, rec model.StudentRecord) (bool, error)
}

// Queue defines how workers receive transcripts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Transcript
}

// Worker processes transcripts using the provided interfaces.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining the queue.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing transcripts.
type InMemoryWorker struct {
	queue       Queue
	evaluator   Evaluator
	recorder    Recorder
	name        string
	topSubjects int
	now         func() time.Time

	processed atomic.Int64
	failed    atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, evaluator Evaluator, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       queue,
		evaluator:   evaluator,
		recorder:    recorder,
		name:        "worker",
		topSubjects: defaultTopSubjects,
		now:         time.Now,
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case t, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, t); err != nil {
				w.logger.Error(ctx, "error processing transcript", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many transcripts this worker recorded.
func (w *InMemoryWorker) Processed() int64 { return w.processed.Load() }

// Failed returns how many transcripts this worker could not record.
func (w *InMemoryWorker) Failed() int64 { return w.failed.Load() }

// process evaluates one transcript and records the result.
func (w *InMemoryWorker) process(ctx context.Context, t Transcript) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	report, err := w.evaluator.Evaluate(t.Verified, t.Pending, w.topSubjects)
	if err != nil {
		kind := credits.ErrorKind(err)
		w.failed.Add(1)
		metrics.RecordEvaluationError(kind)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", kind)
		w.logger.Error(ctx, "evaluation failed",
			logger.String("submission_id", t.SubmissionID),
			logger.String("student_id", t.StudentID),
			logger.Error(err),
		)
		return fmt.Errorf("evaluate submission %s: %w", t.SubmissionID, err)
	}
	metrics.RecordEvaluation("worker", report.Summary.TotalCreditsEarned, float64(time.Since(start).Microseconds())/1000)

	submitted := t.SubmittedAt
	if submitted.IsZero() {
		submitted = w.now()
	}
	applied, err := w.recorder.Upsert(ctx, model.StudentRecord{
		StudentID:    t.StudentID,
		SubmissionID: t.SubmissionID,
		Report:       report,
		SubmittedAt:  submitted,
		EvaluatedAt:  w.now(),
	})
	if err != nil {
		w.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "record_error")
		w.logger.Error(ctx, "recording evaluation failed",
			logger.String("submission_id", t.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("record submission %s: %w", t.SubmissionID, err)
	}

	w.processed.Add(1)
	if !applied {
		w.logger.Debug(ctx, "stale submission ignored",
			logger.String("submission_id", t.SubmissionID),
			logger.String("student_id", t.StudentID),
		)
	}
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a new worker pool. opts are applied to every worker.
func NewPool(workerCount int, queue Queue, evaluator Evaluator, recorder Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(queue, evaluator, recorder, workerOpts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Processed returns how many transcripts the pool recorded.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Processed()
	}
	return n
}

// Failed returns how many transcripts the pool could not record.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.Failed()
	}
	return n
}

// Shutdown closes the queue and lets workers drain what is already queued.
// Workers still busy when ctx (or the pool timeout) expires are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	timedOut := false
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-drainCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
		}
		if timedOut {
			break
		}
	}
	if !timedOut {
		return nil
	}

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	for _, w := range p.workers {
		_ = w.Shutdown(stopCtx)
	}
	return fmt.Errorf("worker pool shutdown: %w", drainCtx.Err())
}

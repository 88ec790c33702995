package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/diploma/internal/adapters/mq/queue"
	"github.com/okian/diploma/internal/adapters/mq/worker"
	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/model"
	logging "github.com/okian/diploma/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	ch   chan worker.Transcript
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan worker.Transcript, 16)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan worker.Transcript { return mq.ch }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.ch) })
	return nil
}

type mockRecorder struct {
	mu      sync.Mutex
	records map[string]model.StudentRecord
	err     error
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{records: make(map[string]model.StudentRecord)}
}

func (m *mockRecorder) Upsert(_ context.Context, rec model.StudentRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	m.records[rec.StudentID] = rec
	return true, nil
}

func (m *mockRecorder) get(id string) (model.StudentRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	return rec, ok
}

func (m *mockRecorder) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker evaluating against the default catalog", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newMockRecorder()
		catalog := credits.DefaultCatalog()
		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		w := worker.NewInMemoryWorker(q, catalog, rec,
			worker.WithName("test-worker"),
			worker.WithTopSubjects(2),
			worker.WithClock(func() time.Time { return fixed }),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a valid transcript arrives", func() {
			q.ch <- worker.Transcript{
				SubmissionID: "sub-1",
				StudentID:    "student-1",
				Verified:     credits.XPMap{credits.Math: 3000, credits.Science: 1500},
				Pending:      credits.XPMap{credits.Math: 500},
			}

			convey.Convey("Then the evaluation is recorded", func() {
				convey.So(eventually(func() bool { return rec.len() == 1 }), convey.ShouldBeTrue)
				got, ok := rec.get("student-1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(got.SubmissionID, convey.ShouldEqual, "sub-1")
				convey.So(got.Credits(), convey.ShouldEqual, 4.5)
				convey.So(got.Ready(), convey.ShouldBeFalse)
				convey.So(got.Report.TopSubjects, convey.ShouldHaveLength, 2)
				convey.So(got.Report.TopSubjects[0].Subject, convey.ShouldEqual, credits.Math)
				convey.So(got.SubmittedAt, convey.ShouldEqual, fixed)
				convey.So(got.EvaluatedAt, convey.ShouldEqual, fixed)
				convey.So(w.Processed(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a transcript names an unknown subject", func() {
			q.ch <- worker.Transcript{
				SubmissionID: "sub-bad",
				StudentID:    "student-2",
				Verified:     credits.XPMap{"astrology": 100},
			}

			convey.Convey("Then nothing is recorded and the failure is counted", func() {
				convey.So(eventually(func() bool { return w.Failed() == 1 }), convey.ShouldBeTrue)
				convey.So(rec.len(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the recorder fails", func() {
			rec.mu.Lock()
			rec.err = errors.New("store unavailable")
			rec.mu.Unlock()
			q.ch <- worker.Transcript{SubmissionID: "sub-3", StudentID: "student-3"}

			convey.Convey("Then the failure is counted", func() {
				convey.So(eventually(func() bool { return w.Failed() == 1 }), convey.ShouldBeTrue)
				convey.So(w.Processed(), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When shutting down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			err := w.Shutdown(sctx)

			convey.Convey("Then it stops gracefully and repeated shutdown is safe", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerStopsOnClosedQueue(t *testing.T) {
	convey.Convey("Given a worker on a closed queue", t, func() {
		_ = logging.Init()
		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, credits.DefaultCatalog(), newMockRecorder())
		_ = q.Close()

		done := make(chan struct{})
		go func() {
			w.Run(context.Background())
			close(done)
		}()

		convey.Convey("Then Run returns", func() {
			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker did not stop", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool on a real queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		rec := newMockRecorder()
		pool := worker.NewPool(4, q, credits.DefaultCatalog(), rec)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When creating a pool with a non-positive count", func() {
			p := worker.NewPool(0, q, credits.DefaultCatalog(), rec)

			convey.Convey("Then a default size is used", func() {
				convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When many transcripts are queued and the pool shuts down", func() {
			pool.Start(ctx)
			for i := 0; i < 200; i++ {
				ok := q.Enqueue(ctx, worker.Transcript{
					SubmissionID: fmt.Sprintf("sub-%d", i),
					StudentID:    fmt.Sprintf("student-%d", i),
					Verified:     credits.XPMap{credits.Math: int64(i * 100)},
				})
				convey.So(ok, convey.ShouldBeTrue)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued transcript is drained first", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.len(), convey.ShouldEqual, 200)
				convey.So(pool.Processed(), convey.ShouldEqual, 200)
				convey.So(pool.Failed(), convey.ShouldEqual, 0)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})
}

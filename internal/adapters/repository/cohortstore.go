package repository

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/diploma/internal/domain/model"
	"github.com/okian/diploma/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: verified credits DESC, then studentID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the cohort from
// most to fewest credits. Credits are compared as float64: the engine sums
// exactly and rounds once, so equal totals always carry the same value.

const defaultMetricsUpdateInterval = 5 * time.Second

type node struct {
	id      string
	credits float64
	prio    uint64
	left    *node
	right   *node
	size    int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aCredits, aID) should appear before (bCredits, bID).
func less(aCredits float64, aID string, bCredits float64, bID string) bool {
	if aCredits != bCredits {
		return aCredits > bCredits
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, credits float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, credits: credits, prio: prio, size: 1}
	}
	if less(credits, id, n.credits, n.id) {
		n.left = insert(n.left, id, credits, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, credits, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, credits float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case credits == n.credits && id == n.id:
		// Rotate the higher-priority child up until n is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, credits)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, credits)
		}
	case less(credits, id, n.credits, n.id):
		n.left = deleteNode(n.left, id, credits)
	default:
		n.right = deleteNode(n.right, id, credits)
	}
	fix(n)
	return n
}

// position returns the 1-based ordinal of (credits, id) in O(log n).
func position(n *node, id string, credits float64) int {
	pos := 0
	for n != nil {
		switch {
		case credits == n.credits && id == n.id:
			return pos + nsize(n.left) + 1
		case less(credits, id, n.credits, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, visit) {
		return false
	}
	if !visit(n) {
		return false
	}
	return walk(n.right, visit)
}

// CohortStore keeps each student's latest evaluation ranked by verified credits.
type CohortStore struct {
	mu    sync.RWMutex
	root  *node
	byID  map[string]model.StudentRecord
	ready int

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCohortStore constructs a cohort store with configuration options.
func NewCohortStore(ctx context.Context, opts ...Option) *CohortStore {
	s := &CohortStore{
		byID:                  make(map[string]model.StudentRecord),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateStudentsTotal(0)
	metrics.UpdateStudentsReady(0)
	s.startMetricsUpdater(ctx)

	return s
}

// Close stops the background metrics goroutine.
func (s *CohortStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *CohortStore) Upsert(_ context.Context, rec model.StudentRecord) (bool, error) { //nolint:gocritic // hugeParam: record is stored by value
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if strings.TrimSpace(rec.StudentID) == "" {
		metrics.RecordErrorByComponent("repository", "invalid_student")
		return false, ErrInvalidStudent
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[rec.StudentID]; ok {
		if rec.SubmittedAt.Before(old.SubmittedAt) {
			return false, nil
		}
		s.root = deleteNode(s.root, old.StudentID, old.Credits())
		if old.Ready() {
			s.ready--
		}
	}
	s.byID[rec.StudentID] = rec
	s.root = insert(s.root, rec.StudentID, rec.Credits(), rand.Uint64())
	if rec.Ready() {
		s.ready++
	}
	return true, nil
}

// Get returns the stored evaluation for a student.
func (s *CohortStore) Get(_ context.Context, studentID string) (model.StudentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[studentID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.StudentRecord{}, ErrNotFound
	}
	return rec, nil
}

// Rank returns the dense rank of a student: students with equal credits
// share a rank and the next distinct credit total ranks one lower.
func (s *CohortStore) Rank(_ context.Context, studentID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[studentID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}

	target := rec.Credits()
	rank := 0
	prev := 0.0
	walk(s.root, func(n *node) bool {
		if rank == 0 || n.credits != prev {
			rank++
			prev = n.credits
		}
		return n.credits != target
	})
	return entryFor(rank, rec), nil
}

// Position returns the 1-based ordinal of a student, ties broken by id.
func (s *CohortStore) Position(_ context.Context, studentID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[studentID]
	if !ok {
		return 0, ErrNotFound
	}
	return position(s.root, rec.StudentID, rec.Credits()), nil
}

// TopN returns the top N entries ordered by credits desc with dense ranks.
func (s *CohortStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	rank := 0
	prev := 0.0
	walk(s.root, func(nd *node) bool {
		if rank == 0 || nd.credits != prev {
			rank++
			prev = nd.credits
		}
		out = append(out, entryFor(rank, s.byID[nd.id]))
		return len(out) < n
	})
	return out, nil
}

// Count returns the total number of students.
func (s *CohortStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// ReadyCount returns how many students meet graduation requirements.
func (s *CohortStore) ReadyCount(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func entryFor(rank int, rec model.StudentRecord) Entry { //nolint:gocritic // hugeParam
	return Entry{
		Rank:              rank,
		StudentID:         rec.StudentID,
		Credits:           rec.Credits(),
		MeetsRequirements: rec.Ready(),
		SubmissionID:      rec.SubmissionID,
		EvaluatedAt:       rec.EvaluatedAt,
	}
}

// startMetricsUpdater periodically publishes cohort gauges.
func (s *CohortStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.updateMetrics()
			}
		}
	}()
}

func (s *CohortStore) updateMetrics() {
	s.mu.RLock()
	total, ready := len(s.byID), s.ready
	s.mu.RUnlock()

	metrics.UpdateStudentsTotal(total)
	metrics.UpdateStudentsReady(ready)
}

// Package worker evaluates queued transcripts and records the results.
package worker

import (
	"time"

	"github.com/okian/diploma/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithTopSubjects sets how many top subjects each stored report keeps.
func WithTopSubjects(n int) Option {
	return func(w *InMemoryWorker) {
		w.topSubjects = n
	}
}

// WithClock overrides the evaluation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *InMemoryWorker) {
		if now != nil {
			w.now = now
		}
	}
}

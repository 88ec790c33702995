package repository

import "time"

// Option applies a configuration option to the CohortStore.
type Option func(*CohortStore)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *CohortStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

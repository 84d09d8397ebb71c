package ingest

import (
	"time"

	"github.com/elograph/elograph/pkg/logger"
)

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithWorkers sets the number of parse workers.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTimeout sets the per-file parse budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used by the coordinator.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

package app

import (
	"time"

	"github.com/elograph/elograph/internal/domain/rating"
	"github.com/elograph/elograph/pkg/logger"
)

// Option configures a Service.
type Option func(*Service)

// WithScanner provides the file discovery used by IngestAll and Watch.
func WithScanner(s Scanner) Option {
	return func(svc *Service) {
		if s != nil {
			svc.scanner = s
		}
	}
}

// WithRatingOptions forwards options to the per-batch rating computer.
func WithRatingOptions(opts ...rating.Option) Option {
	return func(svc *Service) {
		svc.ratingOpts = append(svc.ratingOpts, opts...)
	}
}

// WithExcludedEvents names trial events skipped by school comparisons.
func WithExcludedEvents(events []string) Option {
	return func(svc *Service) {
		svc.excludedEvents = events
	}
}

// WithSeasonsToInclude limits ingestion to the n most recent seasons
// present in a batch. n <= 0 keeps everything.
func WithSeasonsToInclude(n int) Option {
	return func(svc *Service) {
		svc.seasonsToInclude = n
	}
}

// WithWatchDebounce sets how long Watch waits after the last file arrival
// before ingesting the group.
func WithWatchDebounce(d time.Duration) Option {
	return func(svc *Service) {
		if d > 0 {
			svc.watchDebounce = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.log = l
		}
	}
}

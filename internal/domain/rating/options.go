package rating

import (
	"github.com/elograph/elograph/pkg/logger"
)

// Option configures a Computer.
type Option func(*Computer)

// WithKFactors sets the standard and provisional rating swing caps.
func WithKFactors(standard, provisional float64) Option {
	return func(c *Computer) {
		if standard > 0 {
			c.kStandard = standard
		}
		if provisional > 0 {
			c.kProvisional = provisional
		}
	}
}

// WithProvisionalThreshold sets the match count at which a school
// graduates from the provisional K factor.
func WithProvisionalThreshold(n int) Option {
	return func(c *Computer) {
		if n >= 0 {
			c.provisionalThreshold = n
		}
	}
}

// WithDefaultRating sets the rating a school starts from when it has no
// history in a category.
func WithDefaultRating(r float64) Option {
	return func(c *Computer) {
		if r > 0 {
			c.defaultRating = r
		}
	}
}

// WithRatingFloor sets the minimum rating a school can fall to.
func WithRatingFloor(f float64) Option {
	return func(c *Computer) {
		if f >= 0 {
			c.ratingFloor = f
		}
	}
}

// WithImportanceMultipliers scales K for state and national tournaments.
func WithImportanceMultipliers(state, national float64) Option {
	return func(c *Computer) {
		if state >= 1 {
			c.stateMultiplier = state
		}
		if national >= 1 {
			c.nationalMultiplier = national
		}
	}
}

// WithLogger sets the logger used by the computer.
func WithLogger(l logger.Logger) Option {
	return func(c *Computer) {
		if l != nil {
			c.log = l
		}
	}
}

package rating

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrEmptyRanking marks an event with fewer than two distinct schools.
	ErrEmptyRanking = errors.New("ranking has fewer than two schools")

	// ErrOutOfOrder marks a tournament applied behind one already recorded
	// for the same season.
	ErrOutOfOrder = errors.New("tournament applied out of order")
)

// RankingConflictError describes a ranking whose places contradict its
// order. The event is skipped; the rest of the tournament still applies.
type RankingConflictError struct {
	Event  string
	Reason string
}

func (e *RankingConflictError) Error() string {
	return fmt.Sprintf("ranking conflict in %s: %s", e.Event, e.Reason)
}

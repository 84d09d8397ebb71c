// Package query answers read-side questions over rating histories: range
// windows for charting, ordinal alignment for school comparison, and win
// probabilities.
package query

import (
	"math"
	"sort"

	"github.com/elograph/elograph/internal/domain/model"
)

// Range returns the snapshots whose percentage position along the history
// falls inside [startPct, endPct]. Position of index i in a history of
// length n is i/n*100. A nil history, an empty window (start == end), or
// an inverted window yields an empty slice.
func Range(history []model.RatingSnapshot, startPct, endPct float64) []model.RatingSnapshot {
	if len(history) == 0 || startPct >= endPct {
		return nil
	}
	if startPct < 0 {
		startPct = 0
	}
	if endPct > 100 {
		endPct = 100
	}

	n := float64(len(history))
	out := make([]model.RatingSnapshot, 0, len(history))
	for i, snap := range history {
		pct := float64(i) / n * 100
		if pct >= startPct && pct <= endPct {
			out = append(out, snap)
		}
	}
	return out
}

// AlignedPair is one position on the shared ordinal axis of two histories.
type AlignedPair struct {
	Ordinal int
	A       model.RatingSnapshot
	B       model.RatingSnapshot
}

// Align pairs two histories position by position, trimming to the shorter
// one. Comparison is ordinal: the Nth tournament of one school lines up
// with the Nth of the other regardless of calendar dates.
func Align(a, b []model.RatingSnapshot) []AlignedPair {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]AlignedPair, n)
	for i := 0; i < n; i++ {
		out[i] = AlignedPair{Ordinal: i, A: a[i], B: b[i]}
	}
	return out
}

// WinProbability is the Elo expectation that a school rated ra beats one
// rated rb.
func WinProbability(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, -(ra-rb)/400))
}

// EventComparison is the head-to-head outlook for one category.
type EventComparison struct {
	Event   string
	RatingA float64
	RatingB float64
	// ProbA is the probability that school A beats school B.
	ProbA float64
}

// Comparison is the full head-to-head between two schools for a season.
// Schools are identified by (state, name) so same-named schools in
// different states stay distinct.
type Comparison struct {
	StateA  string
	SchoolA string
	StateB  string
	SchoolB string
	Season  string
	// Events holds per-category comparisons where both schools competed,
	// sorted by ProbA descending.
	Events []EventComparison
	// Overall compares the schools' combined standing; nil when either
	// school has no overall history in the season.
	Overall *EventComparison
}

// HistorySource is the read surface Compare needs from the aggregate.
type HistorySource interface {
	SeasonHistory(state, school, season string) []model.RatingSnapshot
}

// Compare builds the head-to-head between two schools using each school's
// best rating per category within the season. Categories named in
// excluded are skipped.
func Compare(src HistorySource, stateA, schoolA, stateB, schoolB, season string, excluded []string) *Comparison {
	skip := make(map[string]bool, len(excluded))
	for _, e := range excluded {
		skip[e] = true
	}

	bestA := bestBySeason(src, stateA, schoolA, season)
	bestB := bestBySeason(src, stateB, schoolB, season)

	cmp := &Comparison{
		StateA:  stateA,
		SchoolA: schoolA,
		StateB:  stateB,
		SchoolB: schoolB,
		Season:  season,
	}
	for event, ra := range bestA {
		if skip[event] || event == model.OverallEvent {
			continue
		}
		rb, ok := bestB[event]
		if !ok {
			continue
		}
		cmp.Events = append(cmp.Events, EventComparison{
			Event:   event,
			RatingA: ra,
			RatingB: rb,
			ProbA:   WinProbability(ra, rb),
		})
	}
	sort.Slice(cmp.Events, func(i, j int) bool {
		if cmp.Events[i].ProbA != cmp.Events[j].ProbA {
			return cmp.Events[i].ProbA > cmp.Events[j].ProbA
		}
		return cmp.Events[i].Event < cmp.Events[j].Event
	})

	if ra, ok := bestA[model.OverallEvent]; ok {
		if rb, ok := bestB[model.OverallEvent]; ok {
			cmp.Overall = &EventComparison{
				Event:   model.OverallEvent,
				RatingA: ra,
				RatingB: rb,
				ProbA:   WinProbability(ra, rb),
			}
		}
	}
	return cmp
}

// bestBySeason returns a school's highest rating per category in a season.
func bestBySeason(src HistorySource, state, school, season string) map[string]float64 {
	best := make(map[string]float64)
	for _, snap := range src.SeasonHistory(state, school, season) {
		if cur, ok := best[snap.EventName]; !ok || snap.Rating > cur {
			best[snap.EventName] = snap.Rating
		}
	}
	return best
}

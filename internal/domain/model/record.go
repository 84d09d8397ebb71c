// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// OverallEvent is the synthetic event name ranking schools by their
// combined placement across all events of a tournament.
const OverallEvent = "__OVERALL__"

// TournamentRecord is the normalized result of one tournament file.
type TournamentRecord struct {
	TournamentID string        // stable id, derived from the source file name
	SeasonID     string        // four digit season, e.g. "2024"
	StateCode    string        // hosting state code, e.g. "CA"
	Date         time.Time     // tournament start date
	National     bool          // national-level tournament
	StateLevel   bool          // state-level tournament
	Events       []EventResult // per-event rankings, OverallEvent included
}

// EventResult is a ranked outcome for a single event.
type EventResult struct {
	EventName  string
	Placements []Placement // ordered by Place ascending
}

// Placement is one school's finish in one event.
type Placement struct {
	School string
	State  string
	Place  int // 1 is best; ties share a Place value
}

// RatingSnapshot records one school's rating after one event was applied.
// JSON tags follow the exported aggregate format.
type RatingSnapshot struct {
	SeasonID     string    `json:"season"`
	TournamentID string    `json:"tournament"`
	EventName    string    `json:"event"`
	Rating       float64   `json:"rating"`
	Delta        float64   `json:"delta"`
	Date         time.Time `json:"date"`
	Place        int       `json:"place"`
}

// ItemResult is the outcome for a single file in a batch, tagged with the
// file's position in the submitted slice.
type ItemResult struct {
	Index      int
	File       string
	Record     *TournamentRecord // nil when Err is set
	SearchText string            // lower-cased source text, for level classification and search
	Err        error
}

// BatchResult aggregates a parse batch. Items holds one entry per input
// file, in input order, whether it parsed or failed.
type BatchResult struct {
	Items []ItemResult
}

// Records returns the successfully parsed records in input order.
func (b *BatchResult) Records() []*TournamentRecord {
	out := make([]*TournamentRecord, 0, len(b.Items))
	for _, it := range b.Items {
		if it.Err == nil && it.Record != nil {
			out = append(out, it.Record)
		}
	}
	return out
}

// Failures returns the items that carry an error, in input order.
func (b *BatchResult) Failures() []ItemResult {
	var out []ItemResult
	for _, it := range b.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// RecordKey uniquely identifies a tournament within the aggregate.
func RecordKey(state, season, tournamentID string) string {
	return fmt.Sprintf("%s/%s/%s", state, season, tournamentID)
}

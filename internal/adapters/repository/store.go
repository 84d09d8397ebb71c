// Package repository holds the in-memory rating aggregate.
//
// The aggregate is keyed state -> school -> season, with each leaf holding
// a tournament list and an append-only rating history. A flat
// last-rating-by-category index gives O(1) current ratings and season
// carry-over. All access goes through one RWMutex; reads return copies so
// callers never alias internal state.
package repository

import (
	"fmt"
	"sort"
	"sync"

	"github.com/elograph/elograph/internal/domain/model"
	"github.com/elograph/elograph/pkg/metrics"
)

// SeasonData is one school's record for one season.
type SeasonData struct {
	Tournaments []string               `json:"tournaments"`
	History     []model.RatingSnapshot `json:"ratingHistory"`
}

// LeaderboardEntry is one row of a ranked leaderboard. Equal ratings share
// a rank and the next rank skips past the tie group.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	School string  `json:"school"`
	State  string  `json:"state"`
	Rating float64 `json:"rating"`
}

type latest struct {
	rating  float64
	matches int
}

// Store owns the rating aggregate.
type Store struct {
	mu            sync.RWMutex
	defaultSeason string

	// data is state -> school -> season -> record.
	data map[string]map[string]map[string]*SeasonData

	// current indexes state|school|event to its latest rating across
	// seasons. Schools sharing a name in different states never share
	// rating state.
	current map[string]latest

	// schools is the set of (state, school) pairs seen, for gauges.
	schools map[string]bool

	applied map[string]bool
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		defaultSeason: "2024",
		data:          make(map[string]map[string]map[string]*SeasonData),
		current:       make(map[string]latest),
		schools:       make(map[string]bool),
		applied:       make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func currentKey(state, school, event string) string {
	return state + "\x00" + school + "\x00" + event
}

func schoolKey(state, school string) string {
	return state + "\x00" + school
}

// bucket returns the season record for (state, school, season), creating
// intermediate maps as needed. Callers must hold the write lock.
func (s *Store) bucket(state, school, season string) *SeasonData {
	schools := s.data[state]
	if schools == nil {
		schools = make(map[string]map[string]*SeasonData)
		s.data[state] = schools
	}
	seasons := schools[school]
	if seasons == nil {
		seasons = make(map[string]*SeasonData)
		schools[school] = seasons
	}
	rec := seasons[season]
	if rec == nil {
		rec = &SeasonData{}
		seasons[season] = rec
	}
	return rec
}

// IsApplied reports whether a tournament identity key has been applied.
func (s *Store) IsApplied(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied[key]
}

// MarkApplied records an identity key. Marking a key twice is a caller
// bug and returns ErrTournamentApplied.
func (s *Store) MarkApplied(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applied[key] {
		return fmt.Errorf("%w: %s", ErrTournamentApplied, key)
	}
	s.applied[key] = true
	return nil
}

// CurrentRating returns a school's latest rating and match count for a
// category across all seasons. The school is identified by its state and
// name together.
func (s *Store) CurrentRating(state, school, event string) (float64, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.current[currentKey(state, school, event)]
	return e.rating, e.matches, ok
}

// RecordSnapshot appends a snapshot to the school's season history and
// advances the current-rating index.
func (s *Store) RecordSnapshot(state, school, season string, snap model.RatingSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.bucket(state, school, season)
	if n := len(rec.Tournaments); n == 0 || rec.Tournaments[n-1] != snap.TournamentID {
		rec.Tournaments = append(rec.Tournaments, snap.TournamentID)
	}
	rec.History = append(rec.History, snap)

	key := currentKey(state, school, snap.EventName)
	e := s.current[key]
	s.current[key] = latest{rating: snap.Rating, matches: e.matches + 1}
	s.schools[schoolKey(state, school)] = true

	metrics.UpdateSchoolsTracked(len(s.schools))
	metrics.UpdateStatesTracked(len(s.data))
}

// SeasonHistory returns a copy of a school's snapshots for one season.
func (s *Store) SeasonHistory(state, school, season string) []model.RatingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.data[state][school][season]
	if rec == nil {
		return nil
	}
	out := make([]model.RatingSnapshot, len(rec.History))
	copy(out, rec.History)
	return out
}

// EventHistory returns a school's snapshots for one category in one
// season, in application order.
func (s *Store) EventHistory(state, school, season, event string) []model.RatingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.data[state][school][season]
	if rec == nil {
		return nil
	}
	var out []model.RatingSnapshot
	for _, snap := range rec.History {
		if snap.EventName == event {
			out = append(out, snap)
		}
	}
	return out
}

// Seasons returns the sorted union of season keys across all schools.
func (s *Store) Seasons() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set := make(map[string]bool)
	for _, schools := range s.data {
		for _, seasons := range schools {
			for season := range seasons {
				set[season] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for season := range set {
		out = append(out, season)
	}
	sort.Strings(out)
	return out
}

// MostRecentSeason returns the lexicographically greatest season key, or
// the configured default when the store is empty. Season keys are
// four-digit years, so lexicographic order is chronological.
func (s *Store) MostRecentSeason() string {
	seasons := s.Seasons()
	if len(seasons) == 0 {
		return s.defaultSeason
	}
	return seasons[len(seasons)-1]
}

// States returns the sorted state codes present in the aggregate.
func (s *Store) States() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for state := range s.data {
		out = append(out, state)
	}
	sort.Strings(out)
	return out
}

// Schools returns the sorted schools recorded for a state.
func (s *Store) Schools(state string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schools := s.data[state]
	out := make([]string, 0, len(schools))
	for school := range schools {
		out = append(out, school)
	}
	sort.Strings(out)
	return out
}

// Leaderboard ranks schools by their last rating in the given category and
// season. limit <= 0 means no limit.
func (s *Store) Leaderboard(event, season string, limit int) []LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []LeaderboardEntry
	for state, schools := range s.data {
		for school, seasons := range schools {
			rec := seasons[season]
			if rec == nil {
				continue
			}
			rating, ok := lastRating(rec.History, event)
			if !ok {
				continue
			}
			rows = append(rows, LeaderboardEntry{School: school, State: state, Rating: rating})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].School < rows[j].School
	})
	assignRanks(rows)

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func lastRating(history []model.RatingSnapshot, event string) (float64, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].EventName == event {
			return history[i].Rating, true
		}
	}
	return 0, false
}

// assignRanks gives equal ratings a shared rank; the rank after a tie
// group accounts for the group's size.
func assignRanks(rows []LeaderboardEntry) {
	for i := range rows {
		if i > 0 && rows[i].Rating == rows[i-1].Rating {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
}

// Snapshot exports a deep copy of the aggregate keyed state -> school ->
// season.
func (s *Store) Snapshot() map[string]map[string]map[string]SeasonData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]map[string]map[string]SeasonData, len(s.data))
	for state, schools := range s.data {
		stateOut := make(map[string]map[string]SeasonData, len(schools))
		for school, seasons := range schools {
			schoolOut := make(map[string]SeasonData, len(seasons))
			for season, rec := range seasons {
				schoolOut[season] = SeasonData{
					Tournaments: append([]string(nil), rec.Tournaments...),
					History:     append([]model.RatingSnapshot(nil), rec.History...),
				}
			}
			stateOut[school] = schoolOut
		}
		out[state] = stateOut
	}
	return out
}

// Clone deep-copies the store for staged batch application. The clone
// shares nothing with the original.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := New(WithDefaultSeason(s.defaultSeason))
	for state, schools := range s.data {
		for school, seasons := range schools {
			for season, rec := range seasons {
				b := c.bucket(state, school, season)
				b.Tournaments = append([]string(nil), rec.Tournaments...)
				b.History = append([]model.RatingSnapshot(nil), rec.History...)
			}
		}
	}
	for k, v := range s.current {
		c.current[k] = v
	}
	for k := range s.schools {
		c.schools[k] = true
	}
	for k := range s.applied {
		c.applied[k] = true
	}
	return c
}

// Replace commits a staged clone, swapping in its contents atomically.
func (s *Store) Replace(staged *Store) {
	staged.mu.RLock()
	defer staged.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = staged.data
	s.current = staged.current
	s.schools = staged.schools
	s.applied = staged.applied
}

// Package app wires discovery, ingestion, rating, and storage into one
// service surface.
package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/elograph/elograph/internal/adapters/repository"
	"github.com/elograph/elograph/internal/domain/model"
	"github.com/elograph/elograph/internal/domain/query"
	"github.com/elograph/elograph/internal/domain/rating"
	"github.com/elograph/elograph/pkg/logger"
)

const defaultWatchDebounce = 500 * time.Millisecond

// Coordinator runs a parse batch.
type Coordinator interface {
	Run(ctx context.Context, paths []string) (model.BatchResult, error)
}

// Scanner finds result files.
type Scanner interface {
	List() ([]string, error)
	Watch(ctx context.Context, onFile func(path string)) error
}

// Summary reports the outcome of one ingestion batch.
type Summary struct {
	BatchID string
	Parsed  int
	Failed  int
	Applied int
	Skipped int
	Errors  []string
}

// Service is the application facade over the rating pipeline.
type Service struct {
	store       *repository.Store
	coordinator Coordinator
	scanner     Scanner
	log         logger.Logger

	ratingOpts       []rating.Option
	excludedEvents   []string
	seasonsToInclude int
	watchDebounce    time.Duration
}

// New creates a Service over the given store and coordinator.
func New(store *repository.Store, coordinator Coordinator, opts ...Option) *Service {
	s := &Service{
		store:         store,
		coordinator:   coordinator,
		log:           logger.Named("app"),
		watchDebounce: defaultWatchDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestAll discovers every result file and ingests it as one batch.
func (s *Service) IngestAll(ctx context.Context) (*Summary, error) {
	if s.scanner == nil {
		return nil, fmt.Errorf("no scanner configured")
	}
	paths, err := s.scanner.List()
	if err != nil {
		return nil, err
	}
	return s.IngestFiles(ctx, paths)
}

// IngestFiles parses and applies a batch of result files. Application is
// staged on a clone of the store and committed only when the whole batch
// ran to completion; a cancelled context commits nothing. Individual bad
// files are reported in the summary and never abort their siblings.
func (s *Service) IngestFiles(ctx context.Context, paths []string) (*Summary, error) {
	summary := &Summary{BatchID: uuid.NewString()}

	batch, err := s.coordinator.Run(ctx, paths)
	if err != nil {
		return nil, err
	}

	records := batch.Records()
	summary.Parsed = len(records)
	for _, item := range batch.Failures() {
		summary.Failed++
		summary.Errors = append(summary.Errors, item.Err.Error())
	}

	records = s.filterSeasons(records)
	sort.Slice(records, func(i, j int) bool {
		if records[i].SeasonID != records[j].SeasonID {
			return records[i].SeasonID < records[j].SeasonID
		}
		return records[i].TournamentID < records[j].TournamentID
	})

	staged := s.store.Clone()
	computer := rating.New(staged, s.ratingOpts...)

	for _, rec := range records {
		applied, _, applyErr := computer.ApplyTournament(ctx, rec)
		switch {
		case applyErr == nil && applied:
			summary.Applied++
		case applyErr == nil:
			summary.Skipped++
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("%s: %v", rec.TournamentID, applyErr))
		}
	}

	s.store.Replace(staged)
	s.log.Info(ctx, "batch committed",
		logger.String("batch", summary.BatchID),
		logger.Int("parsed", summary.Parsed),
		logger.Int("failed", summary.Failed),
		logger.Int("applied", summary.Applied),
		logger.Int("skipped", summary.Skipped))
	return summary, nil
}

// filterSeasons drops records older than the configured season window,
// measured from the newest season in the batch.
func (s *Service) filterSeasons(records []*model.TournamentRecord) []*model.TournamentRecord {
	if s.seasonsToInclude <= 0 {
		return records
	}
	maxSeason := 0
	for _, rec := range records {
		if y, err := strconv.Atoi(rec.SeasonID); err == nil && y > maxSeason {
			maxSeason = y
		}
	}
	if maxSeason == 0 {
		return records
	}
	minSeason := maxSeason - (s.seasonsToInclude - 1)
	out := records[:0]
	for _, rec := range records {
		if y, err := strconv.Atoi(rec.SeasonID); err == nil && y >= minSeason {
			out = append(out, rec)
		}
	}
	return out
}

// Watch ingests result files as they appear, one batch per arrival group.
// Arrivals within the debounce window are batched together. Runs until ctx
// is cancelled.
func (s *Service) Watch(ctx context.Context) error {
	if s.scanner == nil {
		return fmt.Errorf("no scanner configured")
	}

	arrivals := make(chan string, 64)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.scanner.Watch(ctx, func(path string) {
			select {
			case arrivals <- path:
			case <-ctx.Done():
			}
		})
	}()

	pending := make(map[string]bool)
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		pending = make(map[string]bool)
		fire = nil

		if _, err := s.IngestFiles(ctx, paths); err != nil {
			s.log.Warn(ctx, "incremental batch failed", logger.Error(err))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return <-watchErr
		case err := <-watchErr:
			return err
		case path := <-arrivals:
			pending[path] = true
			if timer == nil {
				timer = time.NewTimer(s.watchDebounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.watchDebounce)
			}
			fire = timer.C
		case <-fire:
			flush()
		}
	}
}

// MostRecentSeason returns the newest season, or the configured default.
func (s *Service) MostRecentSeason() string { return s.store.MostRecentSeason() }

// Seasons returns all seasons present in the aggregate.
func (s *Service) Seasons() []string { return s.store.Seasons() }

// States returns all state codes present in the aggregate.
func (s *Service) States() []string { return s.store.States() }

// Schools returns the schools recorded for a state.
func (s *Service) Schools(state string) []string { return s.store.Schools(state) }

// Leaderboard ranks schools for a category and season.
func (s *Service) Leaderboard(event, season string, limit int) []repository.LeaderboardEntry {
	return s.store.Leaderboard(event, season, limit)
}

// History returns a school's rating trail for one category and season,
// windowed by slider percentages.
func (s *Service) History(state, school, season, event string, startPct, endPct float64) []model.RatingSnapshot {
	return query.Range(s.store.EventHistory(state, school, season, event), startPct, endPct)
}

// Compare builds the head-to-head outlook between two schools, each
// identified by state and name.
func (s *Service) Compare(stateA, schoolA, stateB, schoolB, season string) *query.Comparison {
	if season == "" {
		season = s.store.MostRecentSeason()
	}
	return query.Compare(s.store, stateA, schoolA, stateB, schoolB, season, s.excludedEvents)
}

// AlignHistories pairs two schools' category trails on a shared ordinal
// axis for side-by-side charting.
func (s *Service) AlignHistories(stateA, schoolA, stateB, schoolB, season, event string) []query.AlignedPair {
	a := s.store.EventHistory(stateA, schoolA, season, event)
	b := s.store.EventHistory(stateB, schoolB, season, event)
	return query.Align(a, b)
}

// WinProbability is the Elo expectation that a school rated ra beats one
// rated rb.
func (s *Service) WinProbability(ra, rb float64) float64 {
	return query.WinProbability(ra, rb)
}

// Snapshot exports the full aggregate.
func (s *Service) Snapshot() map[string]map[string]map[string]repository.SeasonData {
	return s.store.Snapshot()
}

// Package rating applies multiplayer pairwise Elo updates to tournament
// rankings. Each ranked event is treated as a round robin: every pair of
// schools contributes one comparison with outcome 1, 0, or 0.5, and a
// school's rating moves by its K factor times the average surprise across
// its opponents.
package rating

import (
	"context"
	"math"
	"time"

	"github.com/elograph/elograph/internal/domain/model"
	"github.com/elograph/elograph/pkg/logger"
	"github.com/elograph/elograph/pkg/metrics"
)

// Store is the aggregate surface the computer writes through.
type Store interface {
	// IsApplied reports whether a tournament identity key was applied.
	IsApplied(key string) bool
	// MarkApplied records the key, failing loudly if it already exists.
	MarkApplied(key string) error
	// CurrentRating returns a school's latest rating and match count for a
	// category across all seasons; ok is false when no history exists.
	// Schools are identified by (state, name), never by name alone.
	CurrentRating(state, school, event string) (rating float64, matches int, ok bool)
	// RecordSnapshot appends a snapshot to the school's season history and
	// advances its per-category rating and match count.
	RecordSnapshot(state, school, season string, snap model.RatingSnapshot)
}

// Computer turns tournament records into rating snapshots.
type Computer struct {
	store Store
	log   logger.Logger

	defaultRating        float64
	kStandard            float64
	kProvisional         float64
	provisionalThreshold int
	ratingFloor          float64
	stateMultiplier      float64
	nationalMultiplier   float64

	// lastSeason and lastTournament track apply order.
	lastSeason     string
	lastTournament string
}

// New creates a Computer writing through the given store.
func New(store Store, opts ...Option) *Computer {
	c := &Computer{
		store:                store,
		log:                  logger.Named("rating"),
		defaultRating:        1500,
		kStandard:            16,
		kProvisional:         32,
		provisionalThreshold: 10,
		ratingFloor:          100,
		stateMultiplier:      4,
		nationalMultiplier:   7,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplyTournament folds one tournament into the store. Tournaments must
// arrive in ascending (season, tournament id) order. A tournament whose
// identity key is already applied is skipped without error. The returned
// count is the number of snapshots written.
func (c *Computer) ApplyTournament(ctx context.Context, rec *model.TournamentRecord) (applied bool, snapshots int, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveApplyLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return false, 0, err
	}

	key := model.RecordKey(rec.StateCode, rec.SeasonID, rec.TournamentID)
	if c.store.IsApplied(key) {
		c.log.Debug(ctx, "tournament already applied, skipping",
			logger.String("key", key))
		metrics.RecordTournamentSkipped()
		return false, 0, nil
	}
	if rec.SeasonID < c.lastSeason ||
		(rec.SeasonID == c.lastSeason && rec.TournamentID < c.lastTournament) {
		return false, 0, ErrOutOfOrder
	}

	k := c.kForTournament(rec)
	for _, ev := range rec.Events {
		n, evErr := c.applyEvent(rec, ev, k)
		if evErr != nil {
			c.logEventSkip(ctx, rec, ev.EventName, evErr)
			continue
		}
		snapshots += n
	}

	if err := c.store.MarkApplied(key); err != nil {
		return false, snapshots, err
	}
	c.lastSeason = rec.SeasonID
	c.lastTournament = rec.TournamentID

	metrics.RecordTournamentApplied()
	metrics.RecordSnapshotsAppended(snapshots)
	return true, snapshots, nil
}

// kForTournament scales the base K by the tournament's stakes. The scaling
// is uniform across an event so equal-K events stay zero-sum.
func (c *Computer) kForTournament(rec *model.TournamentRecord) float64 {
	switch {
	case rec.National:
		return c.nationalMultiplier
	case rec.StateLevel:
		return c.stateMultiplier
	default:
		return 1
	}
}

// applyEvent computes and applies deltas for one ranked event. All deltas
// derive from pre-event ratings, so the outcome is independent of the
// order schools are visited in.
func (c *Computer) applyEvent(rec *model.TournamentRecord, ev model.EventResult, importance float64) (int, error) {
	pls := ev.Placements
	if len(pls) < 2 {
		return 0, ErrEmptyRanking
	}
	if err := checkRanking(ev); err != nil {
		return 0, err
	}

	n := len(pls)
	ratings := make([]float64, n)
	matches := make([]int, n)
	for i, pl := range pls {
		r, m, ok := c.store.CurrentRating(pl.State, pl.School, ev.EventName)
		if !ok {
			r, m = c.defaultRating, 0
		}
		ratings[i], matches[i] = r, m
	}

	deltas := make([]float64, n)
	for i := range pls {
		k := c.kStandard
		if matches[i] < c.provisionalThreshold {
			k = c.kProvisional
		}
		k *= importance

		var sum float64
		for j := range pls {
			if i == j {
				continue
			}
			expected := 1 / (1 + math.Pow(10, (ratings[j]-ratings[i])/400))
			sum += outcome(pls[i].Place, pls[j].Place) - expected
		}
		deltas[i] = k * sum / float64(n-1)
	}

	for i, pl := range pls {
		next := ratings[i] + deltas[i]
		if next < c.ratingFloor {
			next = c.ratingFloor
		}
		c.store.RecordSnapshot(pl.State, pl.School, rec.SeasonID, model.RatingSnapshot{
			SeasonID:     rec.SeasonID,
			TournamentID: rec.TournamentID,
			EventName:    ev.EventName,
			Rating:       next,
			Delta:        next - ratings[i],
			Date:         rec.Date,
			Place:        pl.Place,
		})
	}
	return n, nil
}

// outcome scores a pairwise comparison from shared places: a better
// (lower) place wins, equal places draw.
func outcome(a, b int) float64 {
	switch {
	case a < b:
		return 1
	case a > b:
		return 0
	default:
		return 0.5
	}
}

// checkRanking rejects rankings with repeated schools or places that
// contradict the listed order.
func checkRanking(ev model.EventResult) error {
	seen := make(map[string]bool, len(ev.Placements))
	prev := 0
	for _, pl := range ev.Placements {
		if seen[pl.School] {
			return &RankingConflictError{Event: ev.EventName, Reason: "school " + pl.School + " ranked twice"}
		}
		seen[pl.School] = true
		if pl.Place < 1 || pl.Place < prev {
			return &RankingConflictError{Event: ev.EventName, Reason: "places out of order"}
		}
		prev = pl.Place
	}
	return nil
}

func (c *Computer) logEventSkip(ctx context.Context, rec *model.TournamentRecord, event string, err error) {
	reason := "conflict"
	if err == ErrEmptyRanking {
		reason = "empty"
		c.log.Debug(ctx, "skipping event",
			logger.String("tournament", rec.TournamentID),
			logger.String("event", event),
			logger.Error(err))
	} else {
		c.log.Warn(ctx, "skipping event",
			logger.String("tournament", rec.TournamentID),
			logger.String("event", event),
			logger.Error(err))
	}
	metrics.RecordEventSkipped(reason)
}

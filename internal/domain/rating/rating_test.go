package rating_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/elograph/elograph/internal/domain/model"
	"github.com/elograph/elograph/internal/domain/rating"
	"github.com/elograph/elograph/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeStore implements rating.Store in memory.
type fakeStore struct {
	applied map[string]bool
	current map[string]entry
	snaps   []model.RatingSnapshot
}

type entry struct {
	rating  float64
	matches int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		applied: make(map[string]bool),
		current: make(map[string]entry),
	}
}

func (f *fakeStore) key(state, school, event string) string {
	return state + "|" + school + "|" + event
}

func (f *fakeStore) IsApplied(key string) bool { return f.applied[key] }

func (f *fakeStore) MarkApplied(key string) error {
	if f.applied[key] {
		return fmt.Errorf("already applied: %s", key)
	}
	f.applied[key] = true
	return nil
}

func (f *fakeStore) CurrentRating(state, school, event string) (float64, int, bool) {
	e, ok := f.current[f.key(state, school, event)]
	return e.rating, e.matches, ok
}

func (f *fakeStore) RecordSnapshot(state, school, season string, snap model.RatingSnapshot) {
	k := f.key(state, school, snap.EventName)
	e := f.current[k]
	f.current[k] = entry{rating: snap.Rating, matches: e.matches + 1}
	f.snaps = append(f.snaps, snap)
}

func record(season, id string, events ...model.EventResult) *model.TournamentRecord {
	return &model.TournamentRecord{
		TournamentID: id,
		SeasonID:     season,
		StateCode:    "CA",
		Date:         time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		Events:       events,
	}
}

func ranked(event string, schools ...string) model.EventResult {
	return rankedIn("CA", event, schools...)
}

func rankedIn(state, event string, schools ...string) model.EventResult {
	pls := make([]model.Placement, len(schools))
	for i, s := range schools {
		pls[i] = model.Placement{School: s, State: state, Place: i + 1}
	}
	return model.EventResult{EventName: event, Placements: pls}
}

func TestComputerBasics(t *testing.T) {
	convey.Convey("Given a computer over an empty store", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		c := rating.New(store)

		convey.Convey("When applying a ranked event with two new schools", func() {
			applied, n, err := c.ApplyTournament(ctx, record("2024", "t1", ranked("Anatomy", "Alpha", "Beta")))

			convey.Convey("Then the winner gains what the loser gives up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applied, convey.ShouldBeTrue)
				convey.So(n, convey.ShouldEqual, 2)
				convey.So(store.snaps, convey.ShouldHaveLength, 2)

				// Both start at 1500 and use the provisional K of 32.
				convey.So(store.snaps[0].Delta, convey.ShouldAlmostEqual, 16, 1e-9)
				convey.So(store.snaps[1].Delta, convey.ShouldAlmostEqual, -16, 1e-9)
				convey.So(store.snaps[0].Rating, convey.ShouldAlmostEqual, 1516, 1e-9)
			})
		})

		convey.Convey("When applying an event where everyone is established", func() {
			for _, s := range []string{"A", "B", "C", "D"} {
				store.current[store.key("CA", s, "Anatomy")] = entry{rating: 1500, matches: 50}
			}
			_, _, err := c.ApplyTournament(ctx, record("2024", "t1", ranked("Anatomy", "A", "B", "C", "D")))

			convey.Convey("Then deltas are zero-sum at equal K", func() {
				convey.So(err, convey.ShouldBeNil)
				var sum float64
				for _, s := range store.snaps {
					sum += s.Delta
				}
				convey.So(sum, convey.ShouldAlmostEqual, 0, 1e-9)
			})
		})

		convey.Convey("When two schools tie on place", func() {
			pls := []model.Placement{
				{School: "A", State: "CA", Place: 1},
				{School: "B", State: "CA", Place: 1},
			}
			_, _, err := c.ApplyTournament(ctx, record("2024", "t1",
				model.EventResult{EventName: "Anatomy", Placements: pls}))

			convey.Convey("Then equal ratings do not move", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.snaps[0].Delta, convey.ShouldAlmostEqual, 0, 1e-9)
				convey.So(store.snaps[1].Delta, convey.ShouldAlmostEqual, 0, 1e-9)
			})
		})

		convey.Convey("When a school would fall through the rating floor", func() {
			store.current[store.key("CA", "Tiny", "Anatomy")] = entry{rating: 105, matches: 0}
			store.current[store.key("CA", "Rival", "Anatomy")] = entry{rating: 110, matches: 0}
			_, _, err := c.ApplyTournament(ctx, record("2024", "t1", ranked("Anatomy", "Rival", "Tiny")))

			convey.Convey("Then its rating is clamped at the floor", func() {
				convey.So(err, convey.ShouldBeNil)
				r, _, ok := store.CurrentRating("CA", "Tiny", "Anatomy")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(r, convey.ShouldEqual, 100)
			})
		})
	})
}

func TestComputerKSelection(t *testing.T) {
	convey.Convey("Given a computer with a provisional threshold of 10", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		c := rating.New(store, rating.WithKFactors(16, 32), rating.WithProvisionalThreshold(10))

		store.current[store.key("CA", "Rookie", "Anatomy")] = entry{rating: 1500, matches: 3}
		store.current[store.key("CA", "Veteran", "Anatomy")] = entry{rating: 1500, matches: 40}

		convey.Convey("When the rookie beats the veteran", func() {
			_, _, err := c.ApplyTournament(ctx, record("2024", "t1", ranked("Anatomy", "Rookie", "Veteran")))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the rookie moves twice as far", func() {
				var rookie, veteran float64
				for _, s := range store.snaps {
					switch s.Delta > 0 {
					case true:
						rookie = s.Delta
					default:
						veteran = s.Delta
					}
				}
				convey.So(rookie, convey.ShouldAlmostEqual, 16, 1e-9)
				convey.So(veteran, convey.ShouldAlmostEqual, -8, 1e-9)
			})
		})
	})
}

func TestComputerImportance(t *testing.T) {
	convey.Convey("Given a computer with state and national multipliers", t, func() {
		ctx := context.Background()

		deltaFor := func(rec *model.TournamentRecord) float64 {
			store := newFakeStore()
			c := rating.New(store, rating.WithImportanceMultipliers(4, 7))
			_, _, err := c.ApplyTournament(ctx, rec)
			convey.So(err, convey.ShouldBeNil)
			return store.snaps[0].Delta
		}

		base := deltaFor(record("2024", "t1", ranked("Anatomy", "A", "B")))

		convey.Convey("Then a state tournament moves ratings four times as far", func() {
			rec := record("2024", "t1", ranked("Anatomy", "A", "B"))
			rec.StateLevel = true
			convey.So(deltaFor(rec), convey.ShouldAlmostEqual, base*4, 1e-9)
		})

		convey.Convey("And a national tournament seven times as far", func() {
			rec := record("2024", "t1", ranked("Anatomy", "A", "B"))
			rec.National = true
			convey.So(deltaFor(rec), convey.ShouldAlmostEqual, base*7, 1e-9)
		})
	})
}

func TestComputerExpectedScore(t *testing.T) {
	convey.Convey("Given an upset between unequal schools", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		c := rating.New(store, rating.WithProvisionalThreshold(0))

		store.current[store.key("CA", "Favorite", "Anatomy")] = entry{rating: 1700, matches: 20}
		store.current[store.key("CA", "Underdog", "Anatomy")] = entry{rating: 1500, matches: 20}

		_, _, err := c.ApplyTournament(ctx, record("2024", "t1", ranked("Anatomy", "Underdog", "Favorite")))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then the underdog gains more than a routine win would pay", func() {
			expected := 1 / (1 + math.Pow(10, (1700-1500)/400.0))
			want := 16 * (1 - expected)
			var gain float64
			for _, s := range store.snaps {
				if s.Delta > 0 {
					gain = s.Delta
				}
			}
			convey.So(gain, convey.ShouldAlmostEqual, want, 1e-9)
			convey.So(gain, convey.ShouldBeGreaterThan, 8)
		})
	})
}

func TestComputerSkipsAndErrors(t *testing.T) {
	convey.Convey("Given a computer over an empty store", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		c := rating.New(store)

		convey.Convey("When an event has a single school", func() {
			applied, n, err := c.ApplyTournament(ctx, record("2024", "t1",
				ranked("Solo", "Only"),
				ranked("Anatomy", "A", "B"),
			))

			convey.Convey("Then the event is skipped and the rest applies", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applied, convey.ShouldBeTrue)
				convey.So(n, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When a ranking lists a school twice", func() {
			bad := model.EventResult{EventName: "Anatomy", Placements: []model.Placement{
				{School: "A", State: "CA", Place: 1},
				{School: "A", State: "CA", Place: 2},
				{School: "B", State: "CA", Place: 3},
			}}
			applied, n, err := c.ApplyTournament(ctx, record("2024", "t1", bad, ranked("Codebusters", "A", "B")))

			convey.Convey("Then only the conflicting event is dropped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applied, convey.ShouldBeTrue)
				convey.So(n, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the same tournament is applied twice", func() {
			rec := record("2024", "t1", ranked("Anatomy", "A", "B"))
			applied, _, err := c.ApplyTournament(ctx, rec)
			convey.So(err, convey.ShouldBeNil)
			convey.So(applied, convey.ShouldBeTrue)
			before := len(store.snaps)

			applied, n, err := c.ApplyTournament(ctx, rec)

			convey.Convey("Then the second application is a silent skip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(applied, convey.ShouldBeFalse)
				convey.So(n, convey.ShouldEqual, 0)
				convey.So(store.snaps, convey.ShouldHaveLength, before)
			})
		})

		convey.Convey("When tournaments arrive out of order", func() {
			_, _, err := c.ApplyTournament(ctx, record("2024", "t5", ranked("Anatomy", "A", "B")))
			convey.So(err, convey.ShouldBeNil)

			_, _, err = c.ApplyTournament(ctx, record("2024", "t1", ranked("Anatomy", "A", "B")))

			convey.Convey("Then the earlier tournament is rejected", func() {
				convey.So(errors.Is(err, rating.ErrOutOfOrder), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			_, _, err := c.ApplyTournament(cancelled, record("2024", "t1", ranked("Anatomy", "A", "B")))

			convey.Convey("Then nothing is applied", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(store.snaps, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestComputerStateScopedIdentity(t *testing.T) {
	convey.Convey("Given two schools sharing a name in different states", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		c := rating.New(store)

		_, _, err := c.ApplyTournament(ctx, record("2024", "t1", rankedIn("CA", "Anatomy", "Lincoln", "Washington")))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the second state's school debuts", func() {
			_, _, err := c.ApplyTournament(ctx, record("2024", "t2", rankedIn("TX", "Anatomy", "Lincoln", "Mesa")))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then it starts from the default, not the namesake's rating", func() {
				// A fresh 1500-vs-1500 win at the provisional K pays exactly 16.
				convey.So(store.snaps[2].Delta, convey.ShouldAlmostEqual, 16, 1e-9)
				convey.So(store.snaps[2].Rating, convey.ShouldAlmostEqual, 1516, 1e-9)
			})

			convey.Convey("And the two states stay independent", func() {
				ca, caMatches, ok := store.CurrentRating("CA", "Lincoln", "Anatomy")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(ca, convey.ShouldAlmostEqual, 1516, 1e-9)
				convey.So(caMatches, convey.ShouldEqual, 1)

				tx, txMatches, ok := store.CurrentRating("TX", "Lincoln", "Anatomy")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(tx, convey.ShouldAlmostEqual, 1516, 1e-9)
				convey.So(txMatches, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestComputerCarryOver(t *testing.T) {
	convey.Convey("Given a school with history in a previous season", t, func() {
		ctx := context.Background()
		store := newFakeStore()
		c := rating.New(store, rating.WithProvisionalThreshold(0))

		store.current[store.key("CA", "Alpha", "Anatomy")] = entry{rating: 1650, matches: 20}
		store.current[store.key("CA", "Beta", "Anatomy")] = entry{rating: 1650, matches: 20}

		convey.Convey("When a new season begins", func() {
			_, _, err := c.ApplyTournament(ctx, record("2025", "t1", ranked("Anatomy", "Alpha", "Beta")))
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then ratings continue from the prior season", func() {
				convey.So(store.snaps[0].Rating, convey.ShouldAlmostEqual, 1658, 1e-9)
				convey.So(store.snaps[0].SeasonID, convey.ShouldEqual, "2025")
			})
		})
	})
}

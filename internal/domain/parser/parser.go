// Package parser turns raw tournament result files into domain records.
//
// The input format is the duosmium YAML layout: a Tournament header, an
// Events list, a Teams roster, and a flat Placings list. Parsing is a pure
// transform; it never touches the filesystem and never panics outward.
package parser

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/elograph/elograph/internal/domain/model"
)

// sharedValidator is reused across parses; validator instances cache
// struct metadata and are safe for concurrent use.
var sharedValidator = validator.New(validator.WithRequiredStructEnabled())

// resultsFile mirrors the on-disk YAML schema.
type resultsFile struct {
	Tournament tournamentDoc `yaml:"Tournament" validate:"required"`
	Events     []eventDoc    `yaml:"Events" validate:"required,min=1,dive"`
	Teams      []teamDoc     `yaml:"Teams" validate:"required,min=1,dive"`
	Placings   []placingDoc  `yaml:"Placings"`
}

type tournamentDoc struct {
	Name      string `yaml:"name"`
	State     string `yaml:"state" validate:"required"`
	StartDate string `yaml:"start date"`
	Year      int    `yaml:"year"`
	Level     string `yaml:"level"`
}

type eventDoc struct {
	Name string `yaml:"name" validate:"required"`
}

type teamDoc struct {
	Number int    `yaml:"number" validate:"required"`
	School string `yaml:"school" validate:"required"`
	State  string `yaml:"state"`
}

type placingDoc struct {
	Event string `yaml:"event"`
	Team  int    `yaml:"team"`
	Place *int   `yaml:"place"`
}

// Parser converts result file bytes into TournamentRecords.
type Parser struct{}

// New creates a Parser.
func New() *Parser {
	return &Parser{}
}

// Parse transforms one result file. fileID is the file name without its
// extension and doubles as the tournament id. The second return value is
// the lower-cased file text, handed back for search and classification use
// by callers. All failures are *ParseError.
func (p *Parser) Parse(fileID string, data []byte) (*model.TournamentRecord, string, error) {
	lowered := strings.ToLower(string(data))

	var doc resultsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, lowered, newParseError(fileID, "invalid yaml: %v", err)
	}
	if err := sharedValidator.Struct(&doc); err != nil {
		return nil, lowered, newParseError(fileID, "schema validation: %v", err)
	}

	// A team without a state code would poison state-level aggregation.
	for _, t := range doc.Teams {
		if t.State == "" {
			return nil, lowered, newParseError(fileID, "team %d (%s) is missing a state code", t.Number, t.School)
		}
	}

	season, err := seasonOf(fileID, &doc.Tournament)
	if err != nil {
		return nil, lowered, err
	}
	date, err := dateOf(fileID, &doc.Tournament)
	if err != nil {
		return nil, lowered, err
	}

	searchText := strings.ToLower(doc.Tournament.Name+" "+fileID) + " " + lowered
	national := containsAny(searchText, "national tournament", "nationals", "national championship")
	stateLevel := !national && containsAny(searchText, "state tournament", "states", "state championship")

	rec := &model.TournamentRecord{
		TournamentID: fileID,
		SeasonID:     season,
		StateCode:    doc.Tournament.State,
		Date:         date,
		National:     national,
		StateLevel:   stateLevel,
	}
	rec.Events = rankEvents(&doc)
	return rec, lowered, nil
}

// seasonOf resolves the season: explicit year, then start date, then the
// leading YYYY-MM-DD prefix of the file name.
func seasonOf(fileID string, t *tournamentDoc) (string, error) {
	if t.Year > 0 {
		return yearString(t.Year), nil
	}
	if t.StartDate != "" {
		d, err := time.Parse("2006-01-02", t.StartDate)
		if err != nil {
			return "", newParseError(fileID, "invalid start date %q", t.StartDate)
		}
		return yearString(d.Year()), nil
	}
	if d, ok := filenameDate(fileID); ok {
		return yearString(d.Year()), nil
	}
	return "", newParseError(fileID, "no season: missing year, start date, and file name date")
}

// dateOf resolves the tournament date with the same fallback chain.
func dateOf(fileID string, t *tournamentDoc) (time.Time, error) {
	if t.StartDate != "" {
		d, err := time.Parse("2006-01-02", t.StartDate)
		if err != nil {
			return time.Time{}, newParseError(fileID, "invalid start date %q", t.StartDate)
		}
		return d, nil
	}
	if d, ok := filenameDate(fileID); ok {
		return d, nil
	}
	return time.Time{}, newParseError(fileID, "no date: missing start date and file name date")
}

func yearString(y int) string {
	return strconv.Itoa(y)
}

func filenameDate(fileID string) (time.Time, bool) {
	if len(fileID) < 10 {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", fileID[:10])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// schoolScore pairs a competitor with its score for one ranking pass.
// Lower scores rank better.
type schoolScore struct {
	school string
	state  string
	score  int
}

// rankEvents builds per-event placements plus the synthetic overall event.
//
// Teams that placed in no event at all are no-shows and are dropped
// entirely. Within an event, a team that participated elsewhere but has no
// place here is ranked one behind the field. When a school fields several
// teams its best score represents the school.
func rankEvents(doc *resultsFile) []model.EventResult {
	placingsByTeam := make(map[int]map[string]*placingDoc)
	teamsWithPlaces := make(map[int]bool)
	for i := range doc.Placings {
		pl := &doc.Placings[i]
		byEvent := placingsByTeam[pl.Team]
		if byEvent == nil {
			byEvent = make(map[string]*placingDoc)
			placingsByTeam[pl.Team] = byEvent
		}
		byEvent[pl.Event] = pl
		if pl.Place != nil {
			teamsWithPlaces[pl.Team] = true
		}
	}

	active := make([]teamDoc, 0, len(doc.Teams))
	for _, t := range doc.Teams {
		if teamsWithPlaces[t.Number] {
			active = append(active, t)
		}
	}

	// Competitor counts per event exclude no-shows.
	competitorCount := make(map[string]int, len(doc.Events))
	for _, ev := range doc.Events {
		n := 0
		for _, t := range active {
			if pl, ok := placingsByTeam[t.Number][ev.Name]; ok && pl.Place != nil {
				n++
			}
		}
		competitorCount[ev.Name] = n
	}

	out := make([]model.EventResult, 0, len(doc.Events)+1)
	overall := make(map[int]int, len(active))

	for _, ev := range doc.Events {
		count := competitorCount[ev.Name]
		if count == 0 {
			continue
		}
		scores := make([]schoolScore, 0, len(active))
		for _, t := range active {
			place := count + 1
			if pl, ok := placingsByTeam[t.Number][ev.Name]; ok && pl.Place != nil {
				place = *pl.Place
			}
			overall[t.Number] += place
			scores = append(scores, schoolScore{school: t.School, state: t.State, score: place})
		}
		out = append(out, model.EventResult{
			EventName:  ev.Name,
			Placements: rankSchools(scores),
		})
	}

	overallScores := make([]schoolScore, 0, len(active))
	for _, t := range active {
		overallScores = append(overallScores, schoolScore{school: t.School, state: t.State, score: overall[t.Number]})
	}
	out = append(out, model.EventResult{
		EventName:  model.OverallEvent,
		Placements: rankSchools(overallScores),
	})
	return out
}

// rankSchools collapses team scores to one score per school, orders by
// score ascending, and assigns places with equal scores sharing a place.
func rankSchools(scores []schoolScore) []model.Placement {
	best := make(map[string]schoolScore, len(scores))
	for _, s := range scores {
		if cur, ok := best[s.school]; !ok || s.score < cur.score {
			best[s.school] = s
		}
	}
	ranked := make([]schoolScore, 0, len(best))
	for _, s := range best {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].school < ranked[j].school
	})

	out := make([]model.Placement, len(ranked))
	for i, s := range ranked {
		place := i + 1
		if i > 0 && s.score == ranked[i-1].score {
			place = out[i-1].Place
		}
		out[i] = model.Placement{School: s.school, State: s.state, Place: place}
	}
	return out
}

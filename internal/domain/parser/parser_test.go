package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elograph/elograph/internal/domain/model"
	"github.com/elograph/elograph/internal/domain/parser"
)

const sampleInvitational = `
Tournament:
  name: Golden Gate Invitational
  state: CA
  start date: 2024-02-10
  year: 2024
Events:
  - name: Anatomy
  - name: Codebusters
Teams:
  - number: 1
    school: Alpha High
    state: CA
  - number: 2
    school: Beta High
    state: CA
  - number: 3
    school: Gamma High
    state: NV
Placings:
  - event: Anatomy
    team: 1
    place: 1
  - event: Anatomy
    team: 2
    place: 2
  - event: Anatomy
    team: 3
    place: 3
  - event: Codebusters
    team: 1
    place: 2
  - event: Codebusters
    team: 2
    place: 1
  - event: Codebusters
    team: 3
    place: 3
`

func TestParseBasic(t *testing.T) {
	p := parser.New()

	rec, lowered, err := p.Parse("2024-02-10_golden_gate_invitational_c", []byte(sampleInvitational))
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "2024-02-10_golden_gate_invitational_c", rec.TournamentID)
	assert.Equal(t, "2024", rec.SeasonID)
	assert.Equal(t, "CA", rec.StateCode)
	assert.Equal(t, "2024-02-10", rec.Date.Format("2006-01-02"))
	assert.False(t, rec.National)
	assert.False(t, rec.StateLevel)
	assert.Contains(t, lowered, "golden gate invitational")

	// Two events plus the synthetic overall ranking.
	require.Len(t, rec.Events, 3)
	assert.Equal(t, "Anatomy", rec.Events[0].EventName)
	assert.Equal(t, "Codebusters", rec.Events[1].EventName)
	assert.Equal(t, model.OverallEvent, rec.Events[2].EventName)

	anatomy := rec.Events[0].Placements
	require.Len(t, anatomy, 3)
	assert.Equal(t, "Alpha High", anatomy[0].School)
	assert.Equal(t, 1, anatomy[0].Place)
	assert.Equal(t, "NV", anatomy[2].State)

	// Alpha and Beta tie on summed places (3 each), Gamma trails.
	overall := rec.Events[2].Placements
	require.Len(t, overall, 3)
	assert.Equal(t, 1, overall[0].Place)
	assert.Equal(t, 1, overall[1].Place)
	assert.Equal(t, "Gamma High", overall[2].School)
	assert.Equal(t, 3, overall[2].Place)
}

func TestParseNoShowExclusion(t *testing.T) {
	data := `
Tournament:
  name: Regional
  state: OH
  start date: 2023-11-04
Events:
  - name: Forestry
Teams:
  - number: 1
    school: Oak High
    state: OH
  - number: 2
    school: Elm High
    state: OH
  - number: 3
    school: Ghost High
    state: OH
Placings:
  - event: Forestry
    team: 1
    place: 1
  - event: Forestry
    team: 2
    place: 2
  - event: Forestry
    team: 3
`
	rec, _, err := parser.New().Parse("2023-11-04_regional_c", []byte(data))
	require.NoError(t, err)

	// Ghost High placed nowhere and must not appear in any ranking.
	for _, ev := range rec.Events {
		for _, pl := range ev.Placements {
			assert.NotEqual(t, "Ghost High", pl.School)
		}
	}
	require.Len(t, rec.Events[0].Placements, 2)
}

func TestParseUnplacedRankedBehindField(t *testing.T) {
	data := `
Tournament:
  name: Regional
  state: OH
  start date: 2023-11-04
Events:
  - name: Forestry
  - name: Fossils
Teams:
  - number: 1
    school: Oak High
    state: OH
  - number: 2
    school: Elm High
    state: OH
Placings:
  - event: Forestry
    team: 1
    place: 1
  - event: Forestry
    team: 2
    place: 2
  - event: Fossils
    team: 1
    place: 1
`
	rec, _, err := parser.New().Parse("2023-11-04_regional_c", []byte(data))
	require.NoError(t, err)

	// Elm competed in Forestry so it is not a no-show; in Fossils it is
	// ranked behind the single placed competitor.
	fossils := rec.Events[1].Placements
	require.Len(t, fossils, 2)
	assert.Equal(t, "Elm High", fossils[1].School)
	assert.Equal(t, 2, fossils[1].Place)
}

func TestParseSeasonFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		header string
		fileID string
		season string
	}{
		{
			name:   "explicit year wins",
			header: "Tournament:\n  name: T\n  state: CA\n  start date: 2023-12-02\n  year: 2024",
			fileID: "2023-12-02_t_c",
			season: "2024",
		},
		{
			name:   "start date year",
			header: "Tournament:\n  name: T\n  state: CA\n  start date: 2023-12-02",
			fileID: "2023-12-02_t_c",
			season: "2023",
		},
		{
			name:   "file name date",
			header: "Tournament:\n  name: T\n  state: CA",
			fileID: "2022-01-15_t_c",
			season: "2022",
		},
	}

	body := `
Events:
  - name: Anatomy
Teams:
  - number: 1
    school: A
    state: CA
  - number: 2
    school: B
    state: CA
Placings:
  - event: Anatomy
    team: 1
    place: 1
  - event: Anatomy
    team: 2
    place: 2
`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, err := parser.New().Parse(tt.fileID, []byte(tt.header+"\n"+body))
			require.NoError(t, err)
			assert.Equal(t, tt.season, rec.SeasonID)
		})
	}
}

func TestParseImportanceDetection(t *testing.T) {
	data := `
Tournament:
  name: Science Olympiad National Tournament
  state: MI
  start date: 2024-05-18
Events:
  - name: Anatomy
Teams:
  - number: 1
    school: A
    state: CA
  - number: 2
    school: B
    state: TX
Placings:
  - event: Anatomy
    team: 1
    place: 1
  - event: Anatomy
    team: 2
    place: 2
`
	rec, _, err := parser.New().Parse("2024-05-18_nationals_c", []byte(data))
	require.NoError(t, err)
	assert.True(t, rec.National)
	assert.False(t, rec.StateLevel)

	stateData := `
Tournament:
  name: CA State Tournament
  state: CA
  start date: 2024-04-06
Events:
  - name: Anatomy
Teams:
  - number: 1
    school: A
    state: CA
  - number: 2
    school: B
    state: CA
Placings:
  - event: Anatomy
    team: 1
    place: 1
  - event: Anatomy
    team: 2
    place: 2
`
	rec, _, err = parser.New().Parse("2024-04-06_ca_states_c", []byte(stateData))
	require.NoError(t, err)
	assert.False(t, rec.National)
	assert.True(t, rec.StateLevel)
}

func TestParseErrors(t *testing.T) {
	p := parser.New()

	t.Run("invalid yaml", func(t *testing.T) {
		_, _, err := p.Parse("bad", []byte("Tournament: [unclosed"))
		var perr *parser.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "bad", perr.File)
	})

	t.Run("missing team state", func(t *testing.T) {
		data := `
Tournament:
  name: T
  state: CA
  start date: 2024-01-06
Events:
  - name: Anatomy
Teams:
  - number: 1
    school: A
Placings:
  - event: Anatomy
    team: 1
    place: 1
`
		_, _, err := p.Parse("2024-01-06_t_c", []byte(data))
		var perr *parser.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Reason, "missing a state code")
	})

	t.Run("no season derivable", func(t *testing.T) {
		data := `
Tournament:
  name: T
  state: CA
Events:
  - name: Anatomy
Teams:
  - number: 1
    school: A
    state: CA
Placings:
  - event: Anatomy
    team: 1
    place: 1
`
		_, _, err := p.Parse("undated_t_c", []byte(data))
		var perr *parser.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Reason, "no season")
	})

	t.Run("missing events section", func(t *testing.T) {
		data := `
Tournament:
  name: T
  state: CA
  start date: 2024-01-06
Teams:
  - number: 1
    school: A
    state: CA
`
		_, _, err := p.Parse("2024-01-06_t_c", []byte(data))
		var perr *parser.ParseError
		require.ErrorAs(t, err, &perr)
	})
}

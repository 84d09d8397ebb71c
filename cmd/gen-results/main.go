// Command gen-results writes synthetic tournament result files for local
// runs and load testing.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var stateCodes = []string{"CA", "TX", "NY", "OH", "PA", "IL", "MI", "WA", "NC", "FL"}

var eventNames = []string{
	"Anatomy and Physiology", "Astronomy", "Chemistry Lab", "Codebusters",
	"Disease Detectives", "Dynamic Planet", "Forensics", "Forestry",
	"Fossils", "Write It Do It",
}

type resultFile struct {
	Tournament tournamentMeta `yaml:"Tournament"`
	Events     []eventMeta    `yaml:"Events"`
	Teams      []teamMeta     `yaml:"Teams"`
	Placings   []placingMeta  `yaml:"Placings"`
}

type tournamentMeta struct {
	Name      string `yaml:"name"`
	State     string `yaml:"state"`
	StartDate string `yaml:"start date"`
	Year      int    `yaml:"year"`
}

type eventMeta struct {
	Name string `yaml:"name"`
}

type teamMeta struct {
	Number int    `yaml:"number"`
	School string `yaml:"school"`
	State  string `yaml:"state"`
}

type placingMeta struct {
	Event string `yaml:"event"`
	Team  int    `yaml:"team"`
	Place *int   `yaml:"place,omitempty"`
}

func main() {
	var (
		outDir      = flag.String("out", "results", "output directory")
		fileCount   = flag.Int("files", 20, "number of result files to generate")
		teamCount   = flag.Int("teams", 15, "teams per tournament")
		eventCount  = flag.Int("events", 6, "events per tournament")
		seasonCount = flag.Int("seasons", 3, "seasons to spread tournaments over")
		seed        = flag.Int64("seed", 1, "random seed")
	)
	flag.Parse()

	if *eventCount > len(eventNames) {
		*eventCount = len(eventNames)
	}

	rng := rand.New(rand.NewSource(*seed))
	if err := os.MkdirAll(*outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < *fileCount; i++ {
		season := 2024 - rng.Intn(*seasonCount)
		doc, name := generate(rng, i, season, *teamCount, *eventCount)

		data, err := yaml.Marshal(doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal %s: %v\n", name, err)
			os.Exit(1)
		}
		path := filepath.Join(*outDir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Println(path)
	}
}

func generate(rng *rand.Rand, n, season, teams, events int) (*resultFile, string) {
	state := stateCodes[rng.Intn(len(stateCodes))]
	month := 1 + rng.Intn(4)
	day := 1 + rng.Intn(28)
	date := fmt.Sprintf("%04d-%02d-%02d", season, month, day)

	// Every eighth tournament is a state championship for importance
	// detection coverage.
	name := fmt.Sprintf("%s Invitational %d", state, n)
	if n%8 == 7 {
		name = fmt.Sprintf("%s State Tournament", state)
	}

	doc := &resultFile{
		Tournament: tournamentMeta{Name: name, State: state, StartDate: date, Year: season},
	}
	for i := 0; i < events; i++ {
		doc.Events = append(doc.Events, eventMeta{Name: eventNames[i]})
	}
	for t := 1; t <= teams; t++ {
		doc.Teams = append(doc.Teams, teamMeta{
			Number: t,
			School: fmt.Sprintf("%s School %02d", state, t),
			State:  state,
		})
	}

	for _, ev := range doc.Events {
		order := rng.Perm(teams)
		place := 0
		for _, idx := range order {
			team := doc.Teams[idx].Number
			// A slice of teams skip an event now and then.
			if rng.Float64() < 0.1 {
				doc.Placings = append(doc.Placings, placingMeta{Event: ev.Name, Team: team})
				continue
			}
			place++
			p := place
			doc.Placings = append(doc.Placings, placingMeta{Event: ev.Name, Team: team, Place: &p})
		}
	}

	slug := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
	return doc, fmt.Sprintf("%s_%s_c.yaml", date, slug)
}

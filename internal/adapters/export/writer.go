// Package export writes the rating aggregate as state-grouped JSON files.
//
// States are bundled ten to a file so a reader can fetch a small group
// instead of the whole dataset; meta.json maps each state to its group.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/elograph/elograph/internal/adapters/repository"
)

const defaultGroupSize = 10

// Snapshot is the aggregate shape produced by the repository.
type Snapshot = map[string]map[string]map[string]repository.SeasonData

// Meta indexes the exported group files.
type Meta struct {
	States       []string            `json:"states"`
	StateToGroup map[string]string   `json:"stateToGroup"`
	StateGroups  map[string][]string `json:"stateGroups"`
	Seasons      []string            `json:"seasons"`
}

// Writer writes snapshots under a directory.
type Writer struct {
	dir       string
	groupSize int
}

// Option configures a Writer.
type Option func(*Writer)

// WithGroupSize sets how many states share one group file.
func WithGroupSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.groupSize = n
		}
	}
}

// New creates a Writer targeting dir.
func New(dir string, opts ...Option) *Writer {
	w := &Writer{dir: dir, groupSize: defaultGroupSize}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write persists the snapshot as group-N.json files plus meta.json. The
// directory is created if needed. Existing files are overwritten, so
// re-export after re-ingestion is idempotent.
func (w *Writer) Write(snapshot Snapshot, seasons []string) error {
	if err := os.MkdirAll(w.dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	states := make([]string, 0, len(snapshot))
	for state := range snapshot {
		states = append(states, state)
	}
	sort.Strings(states)

	meta := Meta{
		States:       states,
		StateToGroup: make(map[string]string, len(states)),
		StateGroups:  make(map[string][]string),
		Seasons:      seasons,
	}

	// Group files are independent, so they are written concurrently.
	var g errgroup.Group
	for i := 0; i < len(states); i += w.groupSize {
		end := i + w.groupSize
		if end > len(states) {
			end = len(states)
		}
		groupStates := states[i:end]
		groupID := fmt.Sprintf("group-%d", i/w.groupSize)

		group := make(Snapshot, len(groupStates))
		for _, state := range groupStates {
			group[state] = snapshot[state]
			meta.StateToGroup[state] = groupID
		}
		meta.StateGroups[groupID] = groupStates

		g.Go(func() error {
			return w.writeJSON(groupID+".json", group)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return w.writeJSON("meta.json", meta)
}

func (w *Writer) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

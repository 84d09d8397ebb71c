// Package discovery finds tournament result files on disk.
package discovery

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/elograph/elograph/pkg/logger"
)

// Scanner lists and watches result files under a root directory.
type Scanner struct {
	root string
	log  logger.Logger
}

// New creates a Scanner over root.
func New(root string) *Scanner {
	return &Scanner{root: root, log: logger.Named("discovery")}
}

// List returns all .yaml files under the root, sorted by name. File names
// carry a leading date, so name order is chronological order.
func (s *Scanner) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".yaml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// Watch calls onFile for each result file created or written under the
// root. Editors often save via rename, so creates are treated the same as
// writes. It runs until ctx is cancelled.
func (s *Scanner) Watch(ctx context.Context, onFile func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := watcher.Close(); cerr != nil {
			s.log.Warn(ctx, "closing watcher", logger.Error(cerr))
		}
	}()

	if err := watcher.Add(s.root); err != nil {
		return err
	}

	s.log.Info(ctx, "watching for result files", logger.String("root", s.root))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".yaml") {
				continue
			}
			onFile(event.Name)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn(ctx, "watcher error", logger.Error(werr))
		}
	}
}

// Package ingest fans result files out to a bounded pool of parse workers.
//
// Fault tolerance is per file: a malformed file, a timeout, or even a
// panicking parse consumes only its own result slot and never disturbs the
// rest of the batch.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/elograph/elograph/internal/domain/model"
	"github.com/elograph/elograph/internal/domain/parser"
	"github.com/elograph/elograph/pkg/logger"
	"github.com/elograph/elograph/pkg/metrics"
)

const defaultParseTimeout = 10 * time.Second

// Parser turns one file's bytes into a tournament record.
type Parser interface {
	Parse(fileID string, data []byte) (*model.TournamentRecord, string, error)
}

// Coordinator runs parse batches over a fixed-size worker pool.
type Coordinator struct {
	parser  Parser
	workers int
	timeout time.Duration
	log     logger.Logger
}

type task struct {
	index int
	path  string
}

// New creates a Coordinator around the given parser.
func New(p Parser, opts ...Option) *Coordinator {
	c := &Coordinator{
		parser:  p,
		workers: runtime.NumCPU(),
		timeout: defaultParseTimeout,
		log:     logger.Named("ingest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run parses all paths and returns exactly one ItemResult per input index,
// in input order. Cancelling ctx stops dispatch, waits for in-flight
// workers, and returns ctx.Err(); partial output is discarded.
func (c *Coordinator) Run(ctx context.Context, paths []string) (model.BatchResult, error) {
	start := time.Now()
	metrics.RecordBatchRun()
	metrics.UpdateBatchInFlight(1)
	metrics.UpdateWorkerCount(c.workers)
	defer func() {
		metrics.UpdateBatchInFlight(0)
		metrics.ObserveBatchDuration(float64(time.Since(start).Milliseconds()))
	}()

	tasks := make(chan task)
	results := make(chan model.ItemResult, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tasks {
				results <- c.parseOne(ctx, t)
			}
		}()
	}

dispatch:
	for i, p := range paths {
		select {
		case tasks <- task{index: i, path: p}:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(tasks)
	wg.Wait()
	close(results)

	if err := ctx.Err(); err != nil {
		c.log.Warn(ctx, "batch cancelled", logger.Error(err))
		return model.BatchResult{}, err
	}

	items := make([]model.ItemResult, len(paths))
	for i, p := range paths {
		items[i] = model.ItemResult{Index: i, File: p}
	}
	for r := range results {
		items[r.Index] = r
	}
	return model.BatchResult{Items: items}, nil
}

// parseOne parses a single file under the per-file budget. The parse runs
// in its own goroutine so a panic or a hang cannot take down the worker.
func (c *Coordinator) parseOne(ctx context.Context, t task) model.ItemResult {
	start := time.Now()
	item := model.ItemResult{Index: t.index, File: t.path}

	type outcome struct {
		rec  *model.TournamentRecord
		text string
		err  error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &PanicError{File: t.path, Value: r}}
			}
		}()
		data, err := os.ReadFile(t.path)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		rec, text, err := c.parser.Parse(fileID(t.path), data)
		done <- outcome{rec: rec, text: text, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		item.Record, item.SearchText, item.Err = o.rec, o.text, o.err
	case <-timer.C:
		item.Err = &TimeoutError{File: t.path, Timeout: c.timeout}
	case <-ctx.Done():
		item.Err = ctx.Err()
	}

	metrics.ObserveParseLatency(float64(time.Since(start).Milliseconds()))
	if item.Err != nil {
		metrics.RecordParseError(errorKind(item.Err))
		c.log.Warn(ctx, "file failed",
			logger.String("file", t.path),
			logger.Error(item.Err))
	} else {
		metrics.RecordFileParsed()
	}
	return item
}

func errorKind(err error) string {
	switch err.(type) {
	case *TimeoutError:
		return "timeout"
	case *PanicError:
		return "panic"
	case *parser.ParseError:
		return "parse"
	default:
		return "other"
	}
}

// fileID is the file name without directory or extension; it doubles as
// the tournament id.
func fileID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

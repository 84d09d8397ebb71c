package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/elograph/elograph/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestScanner_List(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "2024")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatal(err)
	}

	files := []string{
		filepath.Join(sub, "2024-02-10_b_c.yaml"),
		filepath.Join(dir, "2023-11-04_a_c.yaml"),
		filepath.Join(dir, "notes.txt"),
	}
	for _, f := range files {
		if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := New(dir).List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 yaml files, got %d: %v", len(got), got)
	}
	// Sorted by full path: the top-level 2023 file before the subdir file.
	if filepath.Base(got[0]) != "2023-11-04_a_c.yaml" {
		t.Errorf("expected date order, got %v", got)
	}
}

func TestScanner_ListEmpty(t *testing.T) {
	got, err := New(t.TempDir()).List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no files, got %v", got)
	}
}

func TestScanner_Watch(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	seen := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func(path string) { seen <- path })
	}()

	// Give the watcher a moment to register.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "2024-02-10_new_c.yaml")
	if err := os.WriteFile(target, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-seen:
		if got != target {
			t.Errorf("expected %s, got %s", target, got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for watch event")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch returned error: %v", err)
	}
}

package batch

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/pfrederiksen/pfr-pbp/internal/catalog"
	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

type memRecorder struct {
	results []catalog.GameResult
	err     error
}

func (m *memRecorder) RecordGame(_ context.Context, _ string, r catalog.GameResult) error {
	if m.err != nil {
		return m.err
	}
	m.results = append(m.results, r)
	return nil
}

func setup(t *testing.T) *storage.Storage {
	t.Helper()

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	page, err := os.ReadFile("../../testdata/fixtures/boxscore_202109120was.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	if err := store.WriteGamePage("202109120was", page); err != nil {
		t.Fatal(err)
	}
	if err := store.WriteGamePage("202109120dal", []byte("<html><body>Page Not Found</body></html>")); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestRun_IsolatesFailures(t *testing.T) {
	store := setup(t)
	rec := &memRecorder{}

	report, err := NewRunner(store, rec, "run-1").Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Processed != 2 {
		t.Errorf("Processed = %d, want 2", report.Processed)
	}
	if len(report.Failed) != 1 || report.Failed[0] != "202109120dal" {
		t.Errorf("Failed = %v, want [202109120dal]", report.Failed)
	}
	if report.ByOutcome[pbp.OutcomeAway] != 1 {
		t.Errorf("ByOutcome = %v, want one away win", report.ByOutcome)
	}

	if !storage.Exists(store.ProcessedPath(pbp.OutcomeAway, "202109120was")) {
		t.Error("processed CSV not written")
	}

	if len(rec.results) != 2 {
		t.Fatalf("recorded %d results, want 2", len(rec.results))
	}
	// codes are processed in sorted order
	if rec.results[0].Code != "202109120dal" || rec.results[0].Err == "" {
		t.Errorf("first result = %+v, want failed dal game", rec.results[0])
	}
	if rec.results[1].Outcome != "away" || rec.results[1].Plays != 5 {
		t.Errorf("second result = %+v, want away with 5 plays", rec.results[1])
	}
}

func TestProcessGame_MissingPage(t *testing.T) {
	store := setup(t)
	res := NewRunner(store, nil, "").ProcessGame("202109090tam")
	if res.Err == nil {
		t.Error("expected error for missing page")
	}
}

func TestProcessGame_ParseError(t *testing.T) {
	store := setup(t)
	res := NewRunner(store, nil, "").ProcessGame("202109120dal")
	if !errors.Is(res.Err, pbp.ErrNoPlayByPlay) {
		t.Errorf("ProcessGame() error = %v, want ErrNoPlayByPlay", res.Err)
	}
	if got := res.Catalog(); got.Err == "" || got.Outcome != "" {
		t.Errorf("Catalog() = %+v", got)
	}
}

func TestRun_RecorderFailureStops(t *testing.T) {
	store := setup(t)
	rec := &memRecorder{err: errors.New("disk full")}

	report, err := NewRunner(store, rec, "run-1").Run(context.Background())
	if err == nil {
		t.Fatal("expected recorder error")
	}
	if report.Processed != 1 {
		t.Errorf("Processed = %d, want 1", report.Processed)
	}
}

func TestRun_Cancelled(t *testing.T) {
	store := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(store, nil, "").Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if report.Processed != 0 {
		t.Errorf("Processed = %d, want 0", report.Processed)
	}
}

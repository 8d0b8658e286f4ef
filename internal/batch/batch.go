// Package batch converts every saved box-score page into a processed CSV.
//
// Each game is handled on its own: a page that fails to parse is logged and
// recorded, and the run continues with the next game.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/pfr-pbp/internal/catalog"
	"github.com/pfrederiksen/pfr-pbp/internal/logger"
	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

// Recorder persists per-game results. *catalog.Catalog satisfies it.
type Recorder interface {
	RecordGame(ctx context.Context, runID string, r catalog.GameResult) error
}

// Result is the outcome of processing one game.
type Result struct {
	Code    string      `json:"code"`
	Outcome pbp.Outcome `json:"outcome,omitempty"`
	Plays   int         `json:"plays"`
	Path    string      `json:"path,omitempty"`
	Err     error       `json:"-"`
}

// Catalog converts r into its catalog form.
func (r Result) Catalog() catalog.GameResult {
	out := catalog.GameResult{
		Code:    r.Code,
		Outcome: string(r.Outcome),
		Plays:   r.Plays,
	}
	if r.Err != nil {
		out.Err = r.Err.Error()
	}
	return out
}

// Report summarizes a run.
type Report struct {
	Results   []Result            `json:"-"`
	Processed int                 `json:"processed"`
	ByOutcome map[pbp.Outcome]int `json:"by_outcome"`
	Failed    []string            `json:"failed"`
	Duration  time.Duration       `json:"duration"`
}

// Runner processes saved pages in storage.
type Runner struct {
	store    *storage.Storage
	recorder Recorder
	runID    string
}

// NewRunner creates a Runner. recorder may be nil.
func NewRunner(store *storage.Storage, recorder Recorder, runID string) *Runner {
	return &Runner{
		store:    store,
		recorder: recorder,
		runID:    runID,
	}
}

// ProcessGame parses one saved page and writes its CSV.
func (r *Runner) ProcessGame(code string) Result {
	res := Result{Code: code}
	start := time.Now()

	f, err := os.Open(r.store.GamePagePath(code))
	if err != nil {
		res.Err = fmt.Errorf("opening page: %w", err)
		return res
	}
	defer f.Close()

	game, err := pbp.ParseGame(code, f)
	logger.RecordTiming("game.parse", time.Since(start))
	if err != nil {
		res.Err = err
		return res
	}

	outcome, path, err := r.store.WriteGame(game)
	if err != nil {
		res.Err = err
		return res
	}

	res.Outcome = outcome
	res.Plays = len(game.Plays)
	res.Path = path

	logger.Debug("game processed", logger.Fields{
		"code":     code,
		"outcome":  string(outcome),
		"plays":    res.Plays,
		"excluded": excludedFields(game.Excluded),
	})
	return res
}

// Run processes every saved game in code order. It stops early only when ctx
// is cancelled or the recorder fails.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		ByOutcome: make(map[pbp.Outcome]int),
		Failed:    []string{},
	}

	codes, err := r.store.GameCodes()
	if err != nil {
		return report, err
	}

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		res := r.ProcessGame(code)
		report.Results = append(report.Results, res)
		report.Processed++

		if res.Err != nil {
			logger.IncrCounter("games.failed")
			logger.Warn("game failed", logger.Fields{"code": code, "error": res.Err.Error()})
			report.Failed = append(report.Failed, code)
		} else {
			logger.IncrCounter("games.processed")
			logger.IncrCounter("games.outcome." + string(res.Outcome))
			report.ByOutcome[res.Outcome]++
		}

		if r.recorder != nil {
			if err := r.recorder.RecordGame(ctx, r.runID, res.Catalog()); err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
		}
	}

	report.Duration = time.Since(start)
	logger.Info("processing finished", logger.Fields{
		"processed": report.Processed,
		"failed":    len(report.Failed),
		"duration":  report.Duration.String(),
	})
	return report, nil
}

func excludedFields(m map[pbp.Exclusion]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

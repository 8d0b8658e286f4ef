package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pfrederiksen/pfr-pbp/internal/batch"
	"github.com/pfrederiksen/pfr-pbp/internal/catalog"
	"github.com/pfrederiksen/pfr-pbp/internal/fetcher"
	"github.com/pfrederiksen/pfr-pbp/internal/music"
	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Result is a command result that can be rendered as text.
type Result interface {
	writeText(w io.Writer, verbose bool) error
}

// ItemFailure is a game, schedule or file that could not be handled.
type ItemFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// FetchResult summarizes a fetch run.
type FetchResult struct {
	RunID    string                  `json:"run_id"`
	Seasons  []*fetcher.SeasonReport `json:"seasons"`
	Fetched  int                     `json:"fetched"`
	Skipped  int                     `json:"skipped"`
	Failures []ItemFailure           `json:"failures"`
}

func (r *FetchResult) add(report *fetcher.SeasonReport) {
	r.Seasons = append(r.Seasons, report)
	r.Fetched += report.Fetched
	r.Skipped += report.Skipped
	for _, f := range report.Failures {
		r.Failures = append(r.Failures, ItemFailure{Item: f.Code, Error: f.Err.Error()})
	}
}

func (r *FetchResult) writeText(w io.Writer, verbose bool) error {
	for _, s := range r.Seasons {
		fmt.Fprintf(w, "%d: %d games, %d fetched, %d skipped, %d failed\n",
			s.Year, len(s.Codes), s.Fetched, s.Skipped, len(s.Failures))
		if verbose {
			fmt.Fprintf(w, "      Took: %s\n", s.Duration)
		}
	}
	writeFailures(w, r.Failures)
	fmt.Fprintf(w, "\nTotal: %d fetched, %d skipped, %d failed\n", r.Fetched, r.Skipped, len(r.Failures))
	if verbose {
		fmt.Fprintf(w, "Run: %s\n", r.RunID)
	}
	return nil
}

// ProcessResult summarizes a process run.
type ProcessResult struct {
	RunID string `json:"run_id"`
	*batch.Report
	Failures []ItemFailure `json:"failures,omitempty"`
}

func (r *ProcessResult) writeText(w io.Writer, verbose bool) error {
	if r.Processed == 0 {
		fmt.Fprintln(w, "No saved games to process.")
		return nil
	}

	if verbose {
		for _, res := range r.Results {
			if res.Err == nil {
				fmt.Fprintf(w, "  %s: %s (%d plays)\n", res.Code, res.Outcome, res.Plays)
			}
		}
	}
	writeCounts(w, outcomeCounts(r.ByOutcome))
	writeFailures(w, r.Failures)
	fmt.Fprintf(w, "\nTotal: %d processed, %d failed in %s\n", r.Processed, len(r.Failed), r.Duration)
	if verbose {
		fmt.Fprintf(w, "Run: %s\n", r.RunID)
	}
	return nil
}

// AssembleResult describes the files an assemble run wrote.
type AssembleResult struct {
	Dataset  string              `json:"dataset"`
	Index    string              `json:"index,omitempty"`
	Games    int                 `json:"games"`
	MaxPlays int                 `json:"max_plays"`
	Width    int                 `json:"width"`
	Counts   map[pbp.Outcome]int `json:"counts,omitempty"`
}

func (r *AssembleResult) writeText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "Dataset: %s (%d games, %d plays each)\n", r.Dataset, r.Games, r.MaxPlays)
	if r.Index != "" {
		fmt.Fprintf(w, "Index: %s\n", r.Index)
		writeCounts(w, outcomeCounts(r.Counts))
	}
	return nil
}

// MusicResult summarizes a loaded music library.
type MusicResult struct {
	Dir      string            `json:"dir"`
	Tracks   int               `json:"tracks"`
	Titles   int               `json:"titles"`
	Albums   int               `json:"albums"`
	Artists  int               `json:"artists"`
	Entities music.EntityStats `json:"entities"`
	Failures []ItemFailure     `json:"failures"`
	Library  []music.Track     `json:"library,omitempty"`
}

func (r *MusicResult) writeText(w io.Writer, verbose bool) error {
	fmt.Fprintf(w, "%d tracks: %d titles, %d albums, %d artists\n", r.Tracks, r.Titles, r.Albums, r.Artists)
	fmt.Fprintf(w, "Fields: %d clean, %d dirty, %d entity-encoded\n", r.Entities.Clean, r.Entities.Dirty, r.Entities.Encoded)
	for _, t := range r.Library {
		fmt.Fprintf(w, "  %s - %s (%s)\n", t.Artist, t.Title, t.Album)
	}
	writeFailures(w, r.Failures)
	return nil
}

// StatusResult wraps the latest run's summary; Summary is nil when the
// catalog is empty.
type StatusResult struct {
	Summary *catalog.Summary `json:"summary"`
}

func (r *StatusResult) writeText(w io.Writer, verbose bool) error {
	s := r.Summary
	if s == nil {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "Last %s run: %s\n", s.Run.Kind, s.Run.ID)
	fmt.Fprintf(w, "Started: %s\n", s.Run.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if s.Run.FinishedAt.IsZero() {
		fmt.Fprintln(w, "Finished: (unfinished)")
	} else {
		fmt.Fprintf(w, "Finished: %s\n", s.Run.FinishedAt.Format("2006-01-02 15:04:05 MST"))
	}
	writeCounts(w, s.ByOutcome)

	failures := make([]ItemFailure, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, ItemFailure{Item: f.Code, Error: f.Err})
	}
	writeFailures(w, failures)
	fmt.Fprintf(w, "\nTotal: %d games, %d failed\n", s.Total, len(s.Failures))
	return nil
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result Result, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return result.writeText(w, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outcomeCounts(m map[pbp.Outcome]int) map[string]int {
	out := make(map[string]int, len(m))
	for o, n := range m {
		out[string(o)] = n
	}
	return out
}

// writeCounts prints per-outcome counts in sorted order.
func writeCounts(w io.Writer, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

func writeFailures(w io.Writer, failures []ItemFailure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailed (%d):\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  FAILED %s: %s\n", f.Item, f.Error)
	}
}

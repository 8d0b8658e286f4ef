// Package dataset bundles processed games into fixed-shape JSON for model input.
//
// Every game in an assembled dataset has the same number of rows: its plays,
// front-padded with all -1 rows up to the longest game, followed by one label
// row that is all 0 for an away win and all 1 for a home win.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

// ErrUnlabeledOutcome is returned for outcomes that have no label row.
var ErrUnlabeledOutcome = errors.New("outcome has no label")

const padValue = -1

// DefaultOutcomes are the outcome folders assembled when none are given.
func DefaultOutcomes() []pbp.Outcome {
	return []pbp.Outcome{pbp.OutcomeAway, pbp.OutcomeHome}
}

// Series is one game's padded rows.
type Series struct {
	Code    string      `json:"code"`
	Outcome pbp.Outcome `json:"outcome"`
	Plays   [][]int     `json:"plays"`
}

// Dataset is the assembled collection.
type Dataset struct {
	MaxPlays int      `json:"max_plays"`
	Width    int      `json:"width"`
	Games    []Series `json:"games"`
}

// Label returns the label row for o.
func Label(o pbp.Outcome) ([]int, error) {
	var v int
	switch o {
	case pbp.OutcomeAway:
		v = 0
	case pbp.OutcomeHome:
		v = 1
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnlabeledOutcome, o)
	}
	return fill(v), nil
}

func fill(v int) []int {
	row := make([]int, pbp.RecordWidth)
	for i := range row {
		row[i] = v
	}
	return row
}

type loaded struct {
	code    string
	outcome pbp.Outcome
	records [][]int
}

// Assemble reads every processed game for the given outcomes, in outcome order
// and then file-name order, and pads them to a common length.
func Assemble(store *storage.Storage, outcomes []pbp.Outcome) (*Dataset, error) {
	if len(outcomes) == 0 {
		outcomes = DefaultOutcomes()
	}
	for _, o := range outcomes {
		if _, err := Label(o); err != nil {
			return nil, err
		}
	}

	var games []loaded
	maxPlays := 0
	for _, o := range outcomes {
		paths, err := store.ProcessedGames(o)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			plays, err := storage.ReadGame(path)
			if err != nil {
				return nil, err
			}
			records := make([][]int, len(plays))
			for i, p := range plays {
				records[i] = p.Record()
			}
			if len(records) > maxPlays {
				maxPlays = len(records)
			}
			games = append(games, loaded{
				code:    storage.CodeFromPath(path),
				outcome: o,
				records: records,
			})
		}
	}

	ds := &Dataset{
		MaxPlays: maxPlays,
		Width:    pbp.RecordWidth,
		Games:    make([]Series, 0, len(games)),
	}
	for _, g := range games {
		label, _ := Label(g.outcome)
		ds.Games = append(ds.Games, Series{
			Code:    g.code,
			Outcome: g.outcome,
			Plays:   pad(g.records, maxPlays, label),
		})
	}
	return ds, nil
}

// pad front-fills records with sentinel rows to length n and appends label.
func pad(records [][]int, n int, label []int) [][]int {
	out := make([][]int, 0, n+1)
	for i := len(records); i < n; i++ {
		out = append(out, fill(padValue))
	}
	out = append(out, records...)
	return append(out, label)
}

// Validate checks that every game has MaxPlays+1 rows of Width values.
func (d *Dataset) Validate() error {
	for _, g := range d.Games {
		if len(g.Plays) != d.MaxPlays+1 {
			return fmt.Errorf("game %s has %d rows, want %d", g.Code, len(g.Plays), d.MaxPlays+1)
		}
		for i, row := range g.Plays {
			if len(row) != d.Width {
				return fmt.Errorf("game %s row %d has %d values, want %d", g.Code, i, len(row), d.Width)
			}
		}
	}
	return nil
}

// Marshal validates d and encodes it as compact JSON with a trailing newline.
// Output depends only on the processed CSVs, so re-running over unchanged
// input yields identical bytes.
func (d *Dataset) Marshal() ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}
	return append(data, '\n'), nil
}

// Write saves the dataset to path.
func (d *Dataset) Write(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return storage.WriteFile(path, data)
}

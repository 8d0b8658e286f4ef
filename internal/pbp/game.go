package pbp

import (
	"fmt"
	"io"
)

// Game is a parsed box score.
type Game struct {
	Code     string
	Home     Team
	Plays    []Play
	Excluded map[Exclusion]int // rows dropped by Classify, by reason
}

// ParseGame extracts, classifies and normalizes every row of a box-score page.
// Carry-forward state starts fresh for each call.
func ParseGame(code string, r io.Reader) (*Game, error) {
	home, err := TeamFromCode(code)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, code)
	}

	rows, err := ExtractRows(r)
	if err != nil {
		return nil, err
	}

	game := &Game{
		Code:     code,
		Home:     home,
		Plays:    make([]Play, 0, len(rows)),
		Excluded: make(map[Exclusion]int),
	}

	st := NewState()
	for i, row := range rows {
		if reason := Classify(row); reason != Kept {
			game.Excluded[reason]++
			continue
		}

		var play Play
		play, st, err = Normalize(home, row, st)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		game.Plays = append(game.Plays, play)
	}

	if len(game.Plays) == 0 {
		return nil, ErrNoPlays
	}
	return game, nil
}

// Outcome returns the game's result from its final play.
func (g *Game) Outcome() (Outcome, error) {
	return OutcomeOf(g.Plays)
}

// Records returns every play as an 8-integer row.
func (g *Game) Records() [][]int {
	out := make([][]int, len(g.Plays))
	for i, p := range g.Plays {
		out[i] = p.Record()
	}
	return out
}

package pbp

import (
	"fmt"
	"strings"
)

// Outcome is the result of a game from the home team's point of view.
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeAway Outcome = "away"
	OutcomeTie  Outcome = "tie"
)

// Outcomes lists every outcome in folder order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeHome, OutcomeAway, OutcomeTie}
}

// ParseOutcome converts a folder or flag value into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	o := Outcome(strings.ToLower(strings.TrimSpace(s)))
	switch o {
	case OutcomeHome, OutcomeAway, OutcomeTie:
		return o, nil
	}
	return "", fmt.Errorf("unknown outcome: %q", s)
}

// OutcomeOf derives the outcome from the final play's score.
func OutcomeOf(plays []Play) (Outcome, error) {
	if len(plays) == 0 {
		return "", ErrNoPlays
	}
	last := plays[len(plays)-1]
	switch {
	case last.HomeScore > last.AwayScore:
		return OutcomeHome, nil
	case last.HomeScore < last.AwayScore:
		return OutcomeAway, nil
	default:
		return OutcomeTie, nil
	}
}

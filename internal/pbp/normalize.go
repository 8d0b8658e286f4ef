package pbp

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	overtimeQuarter = 5
	quarterSeconds  = 15 * 60
	midfield        = 50
	notApplicable   = -1
)

// Play is one normalized play.
type Play struct {
	Quarter     int  // 1-4, 5 for overtime
	SecondsLeft int  // seconds remaining in the quarter
	Down        int  // 1-4, -1 when the play has no down
	ToGo        int  // yards to a first down, -1 when the play has no down
	HomeSide    bool // ball is on the home team's side of the field
	YardLine    int  // 0-50
	AwayScore   int
	HomeScore   int
}

// RecordWidth is the number of integers in a serialized Play.
const RecordWidth = 8

// Record returns p as the 8-integer row used in CSV and dataset output.
func (p Play) Record() []int {
	side := 0
	if p.HomeSide {
		side = 1
	}
	return []int{p.Quarter, p.SecondsLeft, p.Down, p.ToGo, side, p.YardLine, p.AwayScore, p.HomeScore}
}

// PlayFromRecord is the inverse of Play.Record.
func PlayFromRecord(rec []int) (Play, error) {
	if len(rec) != RecordWidth {
		return Play{}, fmt.Errorf("record has %d fields, want %d", len(rec), RecordWidth)
	}
	if rec[4] != 0 && rec[4] != 1 {
		return Play{}, fmt.Errorf("possession must be 0 or 1, got %d", rec[4])
	}
	return Play{
		Quarter:     rec[0],
		SecondsLeft: rec[1],
		Down:        rec[2],
		ToGo:        rec[3],
		HomeSide:    rec[4] == 1,
		YardLine:    rec[5],
		AwayScore:   rec[6],
		HomeScore:   rec[7],
	}, nil
}

// State is the carry-forward state for one game: the last clock string and
// score pair seen. Start every game with NewState.
type State struct {
	Clock     string
	AwayScore int
	HomeScore int
}

// NewState returns the state at kickoff: no clock seen, 0-0.
func NewState() State {
	return State{}
}

// Normalize converts a kept row into a Play. Blank clock and score cells are
// filled from st; the returned State reflects any values the row set.
func Normalize(home Team, row Row, st State) (Play, State, error) {
	if len(row.Fields) <= FieldHomeScore {
		return Play{}, st, fmt.Errorf("%w: %d", ErrShortRow, len(row.Fields))
	}

	var (
		play Play
		err  error
	)

	play.Quarter, err = parseQuarter(row.Field(FieldQuarter))
	if err != nil {
		return Play{}, st, err
	}

	if clock := strings.TrimSpace(row.Field(FieldTime)); clock != "" {
		st.Clock = clock
	}
	if st.Clock == "" {
		return Play{}, st, ErrNoClock
	}
	play.SecondsLeft, err = parseClock(st.Clock)
	if err != nil {
		return Play{}, st, err
	}

	if play.Down, err = optionalInt("down", row.Field(FieldDown)); err != nil {
		return Play{}, st, err
	}
	if play.ToGo, err = optionalInt("distance", row.Field(FieldToGo)); err != nil {
		return Play{}, st, err
	}

	play.HomeSide, play.YardLine, err = parseLocation(home, row.Field(FieldLocation))
	if err != nil {
		return Play{}, st, err
	}

	away := strings.TrimSpace(row.Field(FieldAwayScore))
	homeScore := strings.TrimSpace(row.Field(FieldHomeScore))
	if away != "" && homeScore != "" {
		a, err := strconv.Atoi(away)
		if err != nil {
			return Play{}, st, fmt.Errorf("%w: away score %q", ErrMalformedField, away)
		}
		h, err := strconv.Atoi(homeScore)
		if err != nil {
			return Play{}, st, fmt.Errorf("%w: home score %q", ErrMalformedField, homeScore)
		}
		if a < st.AwayScore || h < st.HomeScore {
			return Play{}, st, fmt.Errorf("%w: %d-%d after %d-%d", ErrScoreRegression, a, h, st.AwayScore, st.HomeScore)
		}
		st.AwayScore, st.HomeScore = a, h
	}
	play.AwayScore, play.HomeScore = st.AwayScore, st.HomeScore

	return play, st, nil
}

func parseQuarter(s string) (int, error) {
	if strings.Contains(s, "OT") {
		return overtimeQuarter, nil
	}
	q, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || q < 1 || q > 4 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedQuarter, s)
	}
	return q, nil
}

// parseClock converts "MM:SS" into seconds.
func parseClock(s string) (int, error) {
	mm, ss, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	sc, err := strconv.Atoi(ss)
	if err != nil || sc < 0 || sc >= 60 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	total := m*60 + sc
	if total > quarterSeconds {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	return total, nil
}

func optionalInt(name, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return notApplicable, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrMalformedField, name, s)
	}
	return n, nil
}

// parseLocation reads a location such as "WAS 35". A location without a
// yard number ("50", "", or a bare side label) is midfield.
func parseLocation(home Team, s string) (bool, int, error) {
	parts := strings.Fields(s)
	switch len(parts) {
	case 0:
		return false, midfield, nil
	case 1:
		if n, err := strconv.Atoi(parts[0]); err == nil {
			if n != midfield {
				return false, 0, fmt.Errorf("%w: %q", ErrMalformedLocation, s)
			}
			return false, midfield, nil
		}
		return home.Owns(parts[0]), midfield, nil
	case 2:
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 0 || n > midfield {
			return false, 0, fmt.Errorf("%w: %q", ErrMalformedLocation, s)
		}
		return home.Owns(parts[0]), n, nil
	default:
		return false, 0, fmt.Errorf("%w: %q", ErrMalformedLocation, s)
	}
}

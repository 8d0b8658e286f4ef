package pbp

import "errors"

var (
	ErrInvalidCode       = errors.New("invalid game code")
	ErrNoPlayByPlay      = errors.New("play-by-play container not found")
	ErrNoTable           = errors.New("play-by-play table not found")
	ErrNoPlays           = errors.New("no plays")
	ErrShortRow          = errors.New("row has too few fields")
	ErrMalformedQuarter  = errors.New("malformed quarter")
	ErrMalformedClock    = errors.New("malformed clock")
	ErrNoClock           = errors.New("no clock observed yet")
	ErrMalformedField    = errors.New("malformed field")
	ErrMalformedLocation = errors.New("malformed location")
	ErrScoreRegression   = errors.New("score decreased")
)

package fetcher

import (
	"context"
	"time"

	"github.com/pfrederiksen/pfr-pbp/internal/logger"
)

// GameFailure is a game page that could not be downloaded.
type GameFailure struct {
	Code string `json:"code"`
	Err  error  `json:"-"`
}

// SeasonReport summarizes one season's crawl.
type SeasonReport struct {
	Year     int           `json:"year"`
	Codes    []string      `json:"codes"`
	Fetched  int           `json:"fetched"`
	Skipped  int           `json:"skipped"`
	Failures []GameFailure `json:"failures,omitempty"`
	Duration time.Duration `json:"duration"`
}

// FetchSeason downloads a season's schedule and every box score it links to.
// A failed game is recorded in the report and the crawl moves on; only a
// schedule failure or cancellation ends it early.
func (f *Fetcher) FetchSeason(ctx context.Context, year int) (*SeasonReport, error) {
	start := time.Now()
	report := &SeasonReport{Year: year}

	codes, err := f.FetchSchedule(ctx, year)
	if err != nil {
		return report, err
	}
	report.Codes = codes

	logger.Info("schedule loaded", logger.Fields{
		"year":  year,
		"games": len(codes),
	})

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return report, err
		}

		fetched, err := f.FetchGame(ctx, code)
		switch {
		case err != nil:
			logger.IncrCounter("fetch.games_failed")
			logger.Error("game fetch failed", logger.Fields{"year": year, "code": code}, err)
			report.Failures = append(report.Failures, GameFailure{Code: code, Err: err})
		case fetched:
			logger.IncrCounter("fetch.games_fetched")
			report.Fetched++
		default:
			report.Skipped++
		}
	}

	report.Duration = time.Since(start)
	return report, nil
}

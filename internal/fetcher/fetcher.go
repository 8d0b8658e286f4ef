package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/pfr-pbp/internal/config"
	"github.com/pfrederiksen/pfr-pbp/internal/logger"
	"github.com/pfrederiksen/pfr-pbp/internal/schedule"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

// maxBodyBytes caps a single page; box scores are a few hundred kilobytes.
const maxBodyBytes = 16 << 20

// ErrUnexpectedStatus is wrapped by every StatusError.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatusError reports a non-200 response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: %d", e.URL, ErrUnexpectedStatus, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Temporary reports whether the request is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Fetcher downloads pages and writes them to storage.
type Fetcher struct {
	client     *http.Client
	store      *storage.Storage
	baseURL    string
	userAgent  string
	delay      time.Duration
	maxRetries uint64
	force      bool

	newBackOff func() backoff.BackOff
	lastReq    time.Time
}

// New creates a Fetcher from cfg that saves pages into store.
func New(cfg config.Config, store *storage.Storage) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		store:      store,
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		delay:      cfg.Delay,
		maxRetries: cfg.MaxRetries,
		force:      cfg.Force,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 2 * time.Second
			b.MaxInterval = time.Minute
			return b
		},
	}
}

// ScheduleURL returns the schedule page address for a season.
func (f *Fetcher) ScheduleURL(year int) string {
	return fmt.Sprintf("%s/years/%d/games.htm", f.baseURL, year)
}

// BoxScoreURL returns the box-score page address for a game.
func (f *Fetcher) BoxScoreURL(code string) string {
	return fmt.Sprintf("%s/boxscores/%s.htm", f.baseURL, code)
}

// Get downloads url, waiting out the inter-request delay first and retrying
// transient failures.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		if err := f.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		b, err := f.do(ctx, url)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && !se.Temporary() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		body = b
		return nil
	}

	notify := func(err error, next time.Duration) {
		logger.IncrCounter("fetch.retries")
		logger.Warn("retrying request", logger.Fields{
			"url":   url,
			"after": next.String(),
			"error": err.Error(),
		})
	}

	b := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), f.maxRetries), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()
	f.lastReq = start
	logger.IncrCounter("fetch.requests")
	logger.Debug("fetching page", logger.Fields{"url": url})

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	logger.RecordTiming("fetch.request", time.Since(start))
	return body, nil
}

// wait blocks until the configured delay has passed since the previous request.
func (f *Fetcher) wait(ctx context.Context) error {
	if f.lastReq.IsZero() || f.delay <= 0 {
		return ctx.Err()
	}
	remaining := f.delay - time.Since(f.lastReq)
	if remaining <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FetchSchedule makes sure the season's schedule page is on disk and returns
// the game codes it links to.
func (f *Fetcher) FetchSchedule(ctx context.Context, year int) ([]string, error) {
	path := f.store.SchedulePath(year)

	if f.force || !storage.Exists(path) {
		body, err := f.Get(ctx, f.ScheduleURL(year))
		if err != nil {
			return nil, fmt.Errorf("fetching %d schedule: %w", year, err)
		}
		if err := f.store.WriteSchedule(year, body); err != nil {
			return nil, err
		}
		return schedule.ExtractGameCodes(bytes.NewReader(body))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schedule: %w", err)
	}
	defer file.Close()
	return schedule.ExtractGameCodes(file)
}

// FetchGame makes sure a game's box-score page is on disk. It reports whether
// a download happened.
func (f *Fetcher) FetchGame(ctx context.Context, code string) (bool, error) {
	if !f.force && storage.Exists(f.store.GamePagePath(code)) {
		return false, nil
	}
	body, err := f.Get(ctx, f.BoxScoreURL(code))
	if err != nil {
		return false, fmt.Errorf("fetching game %s: %w", code, err)
	}
	if err := f.store.WriteGamePage(code, body); err != nil {
		return false, err
	}
	return true, nil
}

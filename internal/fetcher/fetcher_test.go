package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/pfrederiksen/pfr-pbp/internal/config"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

func newTestFetcher(t *testing.T, baseURL string) (*Fetcher, *storage.Storage) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	cfg := config.Defaults()
	cfg.BaseURL = baseURL
	cfg.Delay = 0
	cfg.Timeout = 5 * time.Second
	cfg.MaxRetries = 2

	f := New(cfg, store)
	f.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return f, store
}

func TestURLs(t *testing.T) {
	f, _ := newTestFetcher(t, "https://www.pro-football-reference.com")

	if got := f.ScheduleURL(2012); got != "https://www.pro-football-reference.com/years/2012/games.htm" {
		t.Errorf("ScheduleURL() = %q", got)
	}
	if got := f.BoxScoreURL("201810280rai"); got != "https://www.pro-football-reference.com/boxscores/201810280rai.htm" {
		t.Errorf("BoxScoreURL() = %q", got)
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		wantErr      error
		wantAttempts int32
	}{
		{
			name:         "success",
			statuses:     []int{http.StatusOK},
			wantAttempts: 1,
		},
		{
			name:         "retries server errors",
			statuses:     []int{http.StatusBadGateway, http.StatusTooManyRequests, http.StatusOK},
			wantAttempts: 3,
		},
		{
			name:         "not found is permanent",
			statuses:     []int{http.StatusNotFound},
			wantErr:      ErrUnexpectedStatus,
			wantAttempts: 1,
		},
		{
			name:         "gives up after max retries",
			statuses:     []int{http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusOK},
			wantErr:      ErrUnexpectedStatus,
			wantAttempts: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "pfr-pbp") {
					t.Errorf("User-Agent = %q, should contain 'pfr-pbp'", ua)
				}
				n := atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.statuses[n-1])
				w.Write([]byte("<html>ok</html>"))
			}))
			defer server.Close()

			f, _ := newTestFetcher(t, server.URL)
			body, err := f.Get(context.Background(), server.URL+"/page.htm")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Get() unexpected error: %v", err)
				}
				if string(body) != "<html>ok</html>" {
					t.Errorf("Get() body = %q", body)
				}
			}

			if got := atomic.LoadInt32(&attempts); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}
}

func TestGet_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f, _ := newTestFetcher(t, server.URL)
	f.delay = time.Hour
	f.lastReq = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Get(ctx, server.URL); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}

func TestWait_Delay(t *testing.T) {
	f, _ := newTestFetcher(t, "http://unused")
	f.delay = 30 * time.Millisecond
	f.lastReq = time.Now()

	start := time.Now()
	if err := f.wait(context.Background()); err != nil {
		t.Fatalf("wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("wait() returned after %s, expected the delay to be honored", elapsed)
	}
}

func TestFetchSeason(t *testing.T) {
	schedule, err := os.ReadFile("../../testdata/fixtures/schedule_2021.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		switch r.URL.Path {
		case "/years/2021/games.htm":
			w.Write(schedule)
		case "/boxscores/202109090tam.htm", "/boxscores/202109120was.htm":
			w.Write([]byte("<html>" + r.URL.Path + "</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f, store := newTestFetcher(t, server.URL)

	report, err := f.FetchSeason(context.Background(), 2021)
	if err != nil {
		t.Fatalf("FetchSeason() error = %v", err)
	}

	if len(report.Codes) != 3 {
		t.Errorf("Codes = %v, want 3 codes", report.Codes)
	}
	if report.Fetched != 2 {
		t.Errorf("Fetched = %d, want 2", report.Fetched)
	}
	if len(report.Failures) != 1 || report.Failures[0].Code != "202109120rai" {
		t.Errorf("Failures = %+v, want one failure for 202109120rai", report.Failures)
	}
	if !storage.Exists(store.SchedulePath(2021)) {
		t.Error("schedule page was not saved")
	}
	if !storage.Exists(store.GamePagePath("202109120was")) {
		t.Error("box score page was not saved")
	}

	// A second pass reads the saved schedule and skips saved games.
	before := atomic.LoadInt32(&requests)
	report, err = f.FetchSeason(context.Background(), 2021)
	if err != nil {
		t.Fatalf("second FetchSeason() error = %v", err)
	}
	if report.Skipped != 2 || report.Fetched != 0 {
		t.Errorf("second pass Skipped = %d Fetched = %d, want 2 and 0", report.Skipped, report.Fetched)
	}
	if got := atomic.LoadInt32(&requests) - before; got != 1 {
		t.Errorf("second pass made %d requests, want 1 (the missing game)", got)
	}
}

func TestFetchSchedule_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	f, _ := newTestFetcher(t, server.URL)
	if _, err := f.FetchSeason(context.Background(), 2021); err == nil {
		t.Error("expected error when the schedule is missing")
	}
}

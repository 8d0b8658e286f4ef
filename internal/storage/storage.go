package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/pfr-pbp/internal/config"
	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
)

const (
	schedulesDir = "schedules"
	gamesDir     = "games"
	processedDir = "processed_games"

	pageExt = ".html"
	csvExt  = ".csv"

	IndexFile   = "index.json"
	DatasetFile = "padded_dataset.json"
	CatalogFile = "catalog.db"
)

// Storage handles the files under one data directory
type Storage struct {
	dataDir string
}

// New creates a Storage rooted at dataDir, creating the directory tree if needed.
func New(dataDir string) (*Storage, error) {
	dataDir, err := config.ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}

	dirs := []string{
		dataDir,
		filepath.Join(dataDir, schedulesDir),
		filepath.Join(dataDir, gamesDir),
	}
	for _, o := range pbp.Outcomes() {
		dirs = append(dirs, filepath.Join(dataDir, processedDir, string(o)))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	return &Storage{dataDir: dataDir}, nil
}

// DataDir returns the resolved root directory.
func (s *Storage) DataDir() string {
	return s.dataDir
}

// SchedulePath returns the path of a season's raw schedule page.
func (s *Storage) SchedulePath(year int) string {
	return filepath.Join(s.dataDir, schedulesDir, strconv.Itoa(year)+pageExt)
}

// GamePagePath returns the path of a game's raw box-score page.
func (s *Storage) GamePagePath(code string) string {
	return filepath.Join(s.dataDir, gamesDir, code+pageExt)
}

// ProcessedDir returns the folder holding games with the given outcome.
func (s *Storage) ProcessedDir(o pbp.Outcome) string {
	return filepath.Join(s.dataDir, processedDir, string(o))
}

// ProcessedPath returns the CSV path for a game with the given outcome.
func (s *Storage) ProcessedPath(o pbp.Outcome, code string) string {
	return filepath.Join(s.ProcessedDir(o), code+csvExt)
}

// Path joins name onto the data directory.
func (s *Storage) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dataDir, name)
}

// Exists reports whether a regular file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// WriteSchedule saves a raw schedule page verbatim.
func (s *Storage) WriteSchedule(year int, body []byte) error {
	return writeFileAtomic(s.SchedulePath(year), body)
}

// WriteGamePage saves a raw box-score page verbatim.
func (s *Storage) WriteGamePage(code string, body []byte) error {
	return writeFileAtomic(s.GamePagePath(code), body)
}

// GameCodes lists the codes of all saved box-score pages, sorted.
func (s *Storage) GameCodes() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, gamesDir))
	if err != nil {
		return nil, fmt.Errorf("reading games directory: %w", err)
	}

	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), pageExt) {
			continue
		}
		codes = append(codes, strings.TrimSuffix(e.Name(), pageExt))
	}
	sort.Strings(codes)
	return codes, nil
}

// WriteGame writes a parsed game's plays to the folder for its outcome and
// removes any copy left in another outcome folder by an earlier run.
func (s *Storage) WriteGame(game *pbp.Game) (pbp.Outcome, string, error) {
	outcome, err := game.Outcome()
	if err != nil {
		return "", "", err
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	for _, rec := range game.Records() {
		if err := w.Write(intsToStrings(rec)); err != nil {
			return "", "", fmt.Errorf("encoding csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", "", fmt.Errorf("encoding csv: %w", err)
	}

	path := s.ProcessedPath(outcome, game.Code)
	if err := writeFileAtomic(path, []byte(buf.String())); err != nil {
		return "", "", err
	}

	for _, o := range pbp.Outcomes() {
		if o == outcome {
			continue
		}
		stale := s.ProcessedPath(o, game.Code)
		if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("removing stale %s: %w", stale, err)
		}
	}

	return outcome, path, nil
}

// ProcessedGames lists the CSV files for one outcome, sorted by name.
func (s *Storage) ProcessedGames(o pbp.Outcome) ([]string, error) {
	pattern := filepath.Join(s.ProcessedDir(o), "*"+csvExt)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", o, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// CodeFromPath returns the game code of a processed CSV or raw page path.
func CodeFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadGame reads a processed CSV back into plays.
func ReadGame(path string) ([]pbp.Play, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return decodePlays(f, path)
}

func decodePlays(r io.Reader, name string) ([]pbp.Play, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = pbp.RecordWidth

	var plays []pbp.Play
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}

		rec := make([]int, len(fields))
		for i, f := range fields {
			n, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("%s line %d column %d: %w", name, line, i+1, err)
			}
			rec[i] = n
		}

		play, err := pbp.PlayFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", name, line, err)
		}
		plays = append(plays, play)
	}
	return plays, nil
}

// WriteJSON encodes v with two-space indentation and writes it to path.
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}

// WriteFile replaces path with data without ever exposing a partial file.
func WriteFile(path string, data []byte) error {
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes through a temporary file so an interrupted run never
// leaves a truncated page or CSV behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func intsToStrings(rec []int) []string {
	out := make([]string, len(rec))
	for i, n := range rec {
		out[i] = strconv.Itoa(n)
	}
	return out
}

package music

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pfrederiksen/pfr-pbp/internal/logger"
)

// DefaultDir is where library exports are read from when no directory is given.
const DefaultDir = "./excel dump"

// FileError records a file that could not be loaded.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Library holds the decoded tracks of a directory and lookups into them.
type Library struct {
	Tracks   []Track
	ByTitle  map[string][]Track
	ByAlbum  map[string][]Track
	ByArtist map[string][]Track
}

// NewLibrary indexes tracks by their decoded title, album and artist.
func NewLibrary(tracks []Track) *Library {
	lib := &Library{
		Tracks:   tracks,
		ByTitle:  make(map[string][]Track),
		ByAlbum:  make(map[string][]Track),
		ByArtist: make(map[string][]Track),
	}
	for _, t := range tracks {
		lib.ByTitle[t.Title] = append(lib.ByTitle[t.Title], t)
		lib.ByAlbum[t.Album] = append(lib.ByAlbum[t.Album], t)
		lib.ByArtist[t.Artist] = append(lib.ByArtist[t.Artist], t)
	}
	return lib
}

// LoadDir reads every .csv file under dir in lexical path order. Files that
// fail to load are returned as FileErrors; the error result is reserved for
// failures walking the directory itself.
func LoadDir(dir string) (*Library, []FileError, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var tracks []Track
	var failures []FileError
	for _, path := range paths {
		t, err := ReadTrack(path)
		if err != nil {
			logger.Warn("skipping track file", logger.Fields{"path": path, "error": err.Error()})
			failures = append(failures, FileError{Path: path, Err: err})
			continue
		}
		tracks = append(tracks, t)
	}

	logger.Debug("library loaded", logger.Fields{
		"dir":    dir,
		"tracks": len(tracks),
		"failed": len(failures),
	})
	return NewLibrary(tracks), failures, nil
}

// EntityStats counts the raw title, album and artist fields of a library.
type EntityStats struct {
	Clean   int `json:"clean"`
	Dirty   int `json:"dirty"`
	Encoded int `json:"encoded"`
}

// EntityStats classifies each raw text field. A field is clean when, spaces
// removed, it is non-empty and all letters or digits. Every other field is
// dirty, and a dirty field holding '&', '#' and ';' also counts as encoded.
func (l *Library) EntityStats() EntityStats {
	var s EntityStats
	for _, t := range l.Tracks {
		for _, field := range t.raw {
			if isClean(field) {
				s.Clean++
				continue
			}
			s.Dirty++
			if strings.Contains(field, "&") && strings.Contains(field, "#") && strings.Contains(field, ";") {
				s.Encoded++
			}
		}
	}
	return s
}

func isClean(s string) bool {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

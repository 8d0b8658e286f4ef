package dataset

import (
	"path/filepath"

	"github.com/pfrederiksen/pfr-pbp/internal/pbp"
	"github.com/pfrederiksen/pfr-pbp/internal/storage"
)

// IndexEntry describes one processed game.
type IndexEntry struct {
	Code    string      `json:"code"`
	Outcome pbp.Outcome `json:"outcome"`
	Plays   int         `json:"plays"`
	Path    string      `json:"path"`
}

// Index lists every processed game across all outcome folders.
type Index struct {
	Games  []IndexEntry        `json:"games"`
	Counts map[pbp.Outcome]int `json:"counts"`
}

// BuildIndex scans all outcome folders, ties included. Paths are relative to
// the data directory.
func BuildIndex(store *storage.Storage) (*Index, error) {
	idx := &Index{
		Games:  []IndexEntry{},
		Counts: make(map[pbp.Outcome]int),
	}

	for _, o := range pbp.Outcomes() {
		paths, err := store.ProcessedGames(o)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			plays, err := storage.ReadGame(path)
			if err != nil {
				return nil, err
			}
			rel, err := filepath.Rel(store.DataDir(), path)
			if err != nil {
				rel = path
			}
			idx.Games = append(idx.Games, IndexEntry{
				Code:    storage.CodeFromPath(path),
				Outcome: o,
				Plays:   len(plays),
				Path:    filepath.ToSlash(rel),
			})
			idx.Counts[o]++
		}
	}
	return idx, nil
}

// Write saves the index as indented JSON.
func (idx *Index) Write(path string) error {
	return storage.WriteJSON(path, idx)
}

package music

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ErrBadHeader is returned when a file's header row does not match Columns.
var ErrBadHeader = errors.New("unexpected header")

// Column names, in file order.
const (
	ColTitle     = "Title"
	ColAlbum     = "Album"
	ColArtist    = "Artist"
	ColDuration  = "Duration (ms)"
	ColRating    = "Rating"
	ColPlayCount = "Play Count"
	ColRemoved   = "Removed"
)

// Columns is the expected header row.
var Columns = []string{ColTitle, ColAlbum, ColArtist, ColDuration, ColRating, ColPlayCount, ColRemoved}

// Track is one decoded export row.
type Track struct {
	Title     string `json:"title"`
	Album     string `json:"album"`
	Artist    string `json:"artist"`
	Duration  int    `json:"duration_ms"`
	Rating    int    `json:"rating"`
	PlayCount int    `json:"play_count"`
	Removed   bool   `json:"removed"`

	// raw holds title, album and artist as they appeared in the file.
	raw [3]string
}

// Raw returns the undecoded title, album and artist.
func (t Track) Raw() [3]string {
	return t.raw
}

// ReadTrack reads a single export file.
func ReadTrack(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return Track{}, err
	}
	defer f.Close()

	t, err := DecodeTrack(f)
	if err != nil {
		return Track{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// DecodeTrack reads the header and first data row from r.
func DecodeTrack(r io.Reader) (Track, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Track{}, fmt.Errorf("%w: empty file", ErrBadHeader)
	}
	if err != nil {
		return Track{}, err
	}
	if err := checkHeader(header); err != nil {
		return Track{}, err
	}

	rec, err := cr.Read()
	if err == io.EOF {
		return Track{}, errors.New("missing data row")
	}
	if err != nil {
		return Track{}, err
	}
	if len(rec) != len(Columns) {
		return Track{}, fmt.Errorf("data row has %d fields, want %d", len(rec), len(Columns))
	}

	return decodeRecord(rec)
}

func checkHeader(header []string) error {
	if len(header) != len(Columns) {
		return fmt.Errorf("%w: %d columns, want %d", ErrBadHeader, len(header), len(Columns))
	}
	for i, name := range header {
		// Excel exports may lead with a byte order mark.
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		if name != Columns[i] {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i+1, name, Columns[i])
		}
	}
	return nil
}

func decodeRecord(rec []string) (Track, error) {
	t := Track{
		Title:  html.UnescapeString(rec[0]),
		Album:  html.UnescapeString(rec[1]),
		Artist: html.UnescapeString(rec[2]),
		raw:    [3]string{rec[0], rec[1], rec[2]},
	}

	ints := []struct {
		col string
		val string
		dst *int
	}{
		{ColDuration, rec[3], &t.Duration},
		{ColRating, rec[4], &t.Rating},
		{ColPlayCount, rec[5], &t.PlayCount},
	}
	for _, f := range ints {
		n, err := parseCount(f.val)
		if err != nil {
			return Track{}, fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = n
	}

	removed, err := parseRemoved(rec[6])
	if err != nil {
		return Track{}, fmt.Errorf("%s: %w", ColRemoved, err)
	}
	t.Removed = removed
	return t, nil
}

// parseCount treats an empty cell as zero; unrated tracks export a blank rating.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func parseRemoved(s string) (bool, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "no":
		return false, nil
	case "yes":
		return true, nil
	}
	return strconv.ParseBool(s)
}

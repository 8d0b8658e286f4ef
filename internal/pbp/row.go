package pbp

import "strings"

// Column positions in a play-by-play row
const (
	FieldQuarter = iota
	FieldTime
	FieldDown
	FieldToGo
	FieldLocation
	FieldAwayScore
	FieldHomeScore
	FieldDetail
	FieldEPB
	FieldEPA
)

// Row is one raw table row from the play-by-play log.
type Row struct {
	Header bool     // the row is marked as a repeated header (class "thead")
	Fields []string // cell texts in column order
}

// Field returns the text at position i, or "" if the row is shorter.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Joined returns all cell texts separated by single spaces.
func (r Row) Joined() string {
	return strings.Join(r.Fields, " ")
}

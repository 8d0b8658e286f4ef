package pbp

import (
	"slices"
	"strings"
)

// Exclusion names why a row was not kept as a play. The zero value means the
// row is a play.
type Exclusion string

const (
	Kept               Exclusion = ""
	ExcludedHeader     Exclusion = "header"
	ExcludedIncomplete Exclusion = "incomplete"
	ExcludedNonPlay    Exclusion = "non-play"
)

var (
	headerLabels = []string{"Quarter", "Time", "Down", "ToGo"}

	// Rows whose text mentions one of these describe stoppages, not plays.
	nonPlayPhrases = []string{"Timeout", "challenged", "won the coin toss"}
)

// Classify decides whether row is a real play.
func Classify(row Row) Exclusion {
	if row.Header {
		return ExcludedHeader
	}
	if len(row.Fields) <= FieldToGo {
		return ExcludedIncomplete
	}
	if isHeaderLabels(row.Fields) {
		return ExcludedHeader
	}
	if row.Fields[FieldQuarter] == "" || row.Fields[FieldDown] == "" || row.Fields[FieldToGo] == "" {
		return ExcludedIncomplete
	}

	joined := row.Joined()
	for _, phrase := range nonPlayPhrases {
		if strings.Contains(joined, phrase) {
			return ExcludedNonPlay
		}
	}
	return Kept
}

// Keep reports whether row should be normalized into a Play.
func Keep(row Row) bool {
	return Classify(row) == Kept
}

func isHeaderLabels(fields []string) bool {
	for _, label := range headerLabels {
		if !slices.Contains(fields, label) {
			return false
		}
	}
	return true
}

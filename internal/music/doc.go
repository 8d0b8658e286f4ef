// Package music normalizes exported music-library tracks.
//
// Each export file is a two-row CSV: a header naming the columns
//
//	Title, Album, Artist, Duration (ms), Rating, Play Count, Removed
//
// and one data row. Text fields arrive HTML-entity encoded (Don&#39;t) and are
// decoded on read; numeric columns become ints and Removed becomes a bool.
//
// LoadDir reads a whole directory and indexes the tracks by title, album and
// artist. A file that cannot be read is reported in the returned FileError
// list and does not stop the rest of the directory from loading.
package music

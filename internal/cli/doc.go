// Package cli implements the pfr-pbp command-line interface.
//
// The root command carries the shared flags (--data-dir, --format, --log-level,
// --verbose) and five subcommands: fetch downloads pages, process normalizes
// them into per-game CSVs, assemble builds the padded dataset and index, music
// normalizes a directory of track exports, and status reads the last run back
// from the catalog. Commands exit 0 on success, 1 on error and 2 when they
// finished but some games or files failed.
package cli

// Package storage manages the on-disk layout shared by the pfr-pbp commands.
//
// Everything lives under one data directory:
//
//	schedules/{year}.html               raw schedule pages
//	games/{code}.html                   raw box-score pages
//	processed_games/{outcome}/{code}.csv normalized plays, one game per file
//	index.json, padded_dataset.json     assembled outputs
//	catalog.db                          run catalog
//
// Processed CSVs are headerless rows of eight integers, one row per play.
package storage

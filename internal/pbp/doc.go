// Package pbp turns pro-football-reference box-score pages into typed play records.
//
// A box-score page carries its play-by-play log as a table hidden inside an HTML
// comment under the #all_pbp container. ExtractRows locates that table by name,
// Classify drops rows that are not real plays (headers, timeouts, challenges,
// coin tosses, incomplete rows) and Normalize converts the remaining rows into
// Play values. Clock and score values missing from a row are carried forward
// from the previous row through an explicit State that is reset for every game.
package pbp

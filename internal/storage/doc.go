// Package storage persists scraper output to flat files.
//
// Dining hours are written as a plain text report that is replaced on every
// run. Parking availability is kept in a JSON history file that gains one
// snapshot per run:
//
//	{ "history": [ {"timestamp": ..., "record_count": ..., "data": [...]}, ... ] }
//
// Files written by early versions of the parking scraper hold a bare array
// of snapshots; they are upgraded to the object form on the next append.
// All writes go through a temporary file in the destination directory and a
// rename, so an interrupted run leaves the previous file in place.
package storage

// Package sqlite implements driven.DocumentStore on a local SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Every collection shares one records table keyed by
// (collection, id) with the record stored as JSON text.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Change Feed
//
// Every write appends a row to the changes table inside the same
// transaction. Watchers are fed from that table: in-process writes poll it
// directly, and an fsnotify watch on the database files picks up writes made
// by other processes sharing the file.
//
// # Data Location
//
// By default, the database is stored at ~/.charterbook/data/charterbook.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite's WAL mode
// locking and opens write transactions immediately.
package sqlite

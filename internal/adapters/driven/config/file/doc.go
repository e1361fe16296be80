// Package file provides the TOML-backed configuration store.
//
// Keys are dotted ("store.backend") and are written as TOML tables:
//
//	[store]
//	backend = "sqlite"
//
// CHARTERBOOK_* environment variables override file values on read and are
// never written back.
package file

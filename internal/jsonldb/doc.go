// Package jsonldb provides thread-safe JSONL file storage for typed rows.
//
// A Table[T] persists one row per line as JSON, preceded by a schema header
// line derived from the row type via JSON Schema reflection. Rows must
// implement the Row interface (Clone plus GetID) so the table can key
// updates and deletes. All reads return clones; callers never share memory
// with the in-memory cache.
package jsonldb

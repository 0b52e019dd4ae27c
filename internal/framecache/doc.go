// Package framecache persists prepared metadata and frame indexes in a
// local SQLite database so interrupted batches resume without re-probing.
//
// Entries are keyed by path plus file size and modification time; an edited
// source invalidates its own entry. The cache is best effort: callers log
// cache failures and fall through to a fresh preparation.
package framecache

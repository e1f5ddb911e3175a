// Package storage provides the on-disk cache layer for guide data.
//
// The cache directory holds two kinds of entries: grid windows, one
// gzip-compressed JSON file per epoch ("<epoch>.json.gz"), and series
// details, one plain JSON file per series id ("<id>.json"). Malformed or
// zero-length entries are deleted before any retry so a corrupt entry is
// never read twice. Concurrent invocations against the same directory are
// not supported; callers serialize runs.
package storage

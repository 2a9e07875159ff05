// Package database keeps the local crawl history in SQLite.
//
// The HistoryDB stores:
//   - crawl requests that were submitted or watched, with their final
//     status, elapsed time and error
//   - their results, unique per request and in arrival order
//   - fetched result documents with a SHA3-256 content hash
//
// SQLite is provided by modernc.org/sqlite, which needs no cgo. The file
// lives in the XDG data directory unless another directory is given.
package database

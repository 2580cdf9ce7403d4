// Package database keeps the crawl ledger: a SQLite file (poketl.db) with
// one row per run and one row per tournament processed in a run, including
// the SHA3-256 digest of every written document.
//
// The ledger is informational. Whether a tournament still needs crawling is
// decided by the presence of its document, never by the ledger, so deleting
// poketl.db loses history but does not change what the next run does.
//
// modernc.org/sqlite is used so the binary stays CGO-free.
package database

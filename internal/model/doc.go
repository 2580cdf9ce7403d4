// Package model defines the records produced by a crawl: tournaments, players,
// decklists and matches, plus the listing metadata and run outcomes that flow
// between the crawler, the pipeline and the reports.
//
// All records are plain values built through validating constructors. Once a
// Tournament has been assembled it is not modified again; the JSON field names
// are the contract consumed by the warehouse loaders.
package model

// Package pipeline drives the crawl.
//
// Each tournament of the list is processed as a TournamentJob passed through
// a Pipeline of Steps: existence check, standings, pairings, assembly and
// persistence. A step may finish the job early (for example when the
// document already exists), which skips the remaining steps.
//
// The Orchestrator walks the list pages and runs the pipeline for one
// tournament at a time, in listing order. Concurrency only happens inside a
// tournament, in the fetch fan-outs of the crawler package.
package pipeline

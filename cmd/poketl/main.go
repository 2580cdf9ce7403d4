// Package main provides the entry point for the poketl CLI.
//
// poketl crawls the completed tournaments of play.limitlesstcg.com and
// writes one JSON document per tournament with its players, decklists and
// matches.
//
// Usage:
//
//	poketl scrape -o ./sample_output
//	poketl history
//	poketl show <tournament-id>
//
// See --help for all available options.
package main

func main() {
	Execute()
}

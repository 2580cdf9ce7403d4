// Package config holds the crawl configuration: defaults, the optional
// YAML file (.poketl) and validation. CLI flags are applied by cmd/poketl
// on top of the values loaded here.
package config

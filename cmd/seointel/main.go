// Package main provides the entry point for the seointel CLI.
//
// seointel analyzes a website's search presence end to end: it resolves
// which data providers are usable, schedules the analysis units the
// requested mode asks for, executes them against cached provider data,
// scores the results per dimension, diffs them against the site's
// baseline, and assembles a markdown intelligence report.
//
// Usage:
//
//	seointel run example.com
//	seointel run --mode technical example.com
//
// See --help for all available options.
package main

// main is the entry point for seointel.
func main() {
	Execute()
}

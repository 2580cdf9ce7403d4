// Package report renders crawl results for humans and tools.
//
// Three formats implement Writer:
//   - TextWriter: plain text for the terminal
//   - MarkdownWriter: Markdown with a Mermaid pie chart of outcomes
//   - JSONWriter: indented JSON for other programs
//
// Each writer renders a run summary, the crawl history from the ledger and
// a single stored tournament document.
package report

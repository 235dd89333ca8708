// Package report renders audit reports.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text for terminal display
//   - JSONWriter and FullJSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub-flavored markdown with a mermaid rating chart
//
// Writers implement the Writer interface, so they can be used
// interchangeably and combined with MultiWriter.
package report

// Package model defines the data structures shared by the gatherer, the
// audits, the report writers and the history database.
//
// The types fall into three groups:
//   - Artifacts: page data collected once per run (stylesheets, the main
//     document, the final URL and network records) and handed read-only to
//     every audit.
//   - AuditResult and CategoryResult: the scored outcome of each audit and
//     of the weighted category that groups them.
//   - AuditReport and Summary: the per-URL report that is rendered, stored
//     and compared across runs.
//
// None of these values are mutated by audits. Artifacts are built by the
// gather package and audit results are appended by the pipeline.
package model

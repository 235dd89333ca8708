// Package plugin declares which audits ecoaudit runs and how their scores
// are rolled up into the "Sustainable Web Design" category.
//
// The category references audits by ID with a weight. Some references
// (unminified-css, uses-optimized-images, ...) name audits of the wider
// auditing ecosystem that ecoaudit does not implement; they are kept so the
// weights stay comparable, and are reported as unavailable when scored.
package plugin

// Package pipeline runs the stages of one audit in sequence.
//
// A run is gather, audit, category: the page artifacts are collected (from
// the network or from files), every registered audit is executed against
// them and the results are rolled up into the category score. Each stage is
// a Step that receives the report and fills in its part.
//
// BatchProcessor audits many URLs concurrently using errgroup with a
// concurrency limit.
package pipeline

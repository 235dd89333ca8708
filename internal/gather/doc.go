// Package gather collects the page artifacts the audits need.
//
// Gatherer loads a live page over HTTP: the main document, every linked or
// inline stylesheet and the network records of those fetches. Compression is
// negotiated explicitly so that the bytes on the wire can be measured.
// LoadFiles builds the same artifacts from files on disk for offline runs.
//
// This is a deliberately small gatherer. It does not execute scripts, so
// stylesheets or videos injected at runtime are not seen.
package gather

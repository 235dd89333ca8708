// Package main provides the entry point for the ecoaudit CLI.
//
// ecoaudit audits web pages for sustainability problems: fonts not served
// as woff2, custom font families that are not web safe, unminified HTML and
// videos that do not use AV1, VP9, HEVC or H.264. The results are rolled up into
// a weighted sustainability score and kept in a local history database.
//
// Usage:
//
//	ecoaudit audit https://example.com/
//	ecoaudit audit --html index.html --css site.css
//	ecoaudit compare https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}

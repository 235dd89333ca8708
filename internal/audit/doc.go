// Package audit implements the sustainability audits and the runner that
// executes them against gathered page artifacts.
//
// Every audit satisfies the Audit interface: it describes itself with Meta
// and turns a read-only *model.Artifacts into a Product. Audits keep no
// state between calls, so a single value can be shared by concurrent runs.
//
// The built-in audits are:
//   - font-format: share of @font-face rules offering a woff2 source
//   - font-family: share of @font-face families that are web safe
//   - unminified-html: bytes that HTML minification would save
//   - video-codec: share of <video> sources using a modern codec
//
// The video-codec audit does not inspect media itself. It delegates to a
// CodecProber, normally FFProbe, so it can be tested with a fake.
package audit

// Package database stores audit history in SQLite.
//
// HistoryDB keeps every saved AuditReport as JSON together with its URL,
// audit time, document hash, category score and rating summary, so the
// compare command can list past runs without decoding full reports.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite implementation. The
// database is a single file in the XDG data directory and runs in WAL mode.
package database

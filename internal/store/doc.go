// Package store keeps a SQLite ledger of intake events.
//
// Every batch the intake engine partitions is recorded as one event row with
// a row per submitted file, in submission order, carrying the file's outcome
// and, for rejected files, the rule it failed. The ledger backs the history
// endpoint and the ledger gauges exported by the metrics collector.
//
// The database runs in WAL mode with a busy timeout so reads from the HTTP
// handlers do not block the writer. Each query is timed and counted in the
// media_intake_db_* metrics.
package store

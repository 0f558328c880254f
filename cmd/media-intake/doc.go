// Package main is the entry point of the media intake server.
//
// The server validates uploaded batches against an intake policy (accepted
// types, per-file and total size bounds, cardinality), records every batch
// in a SQLite ledger and sizes image previews for the accepted files.
// Images are decoded in an isolated decode context that is shared by all
// requests.
//
// # Application Lifecycle
//
//  1. Memory configuration: GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration loading: .env file, environment, optional POLICY_FILE
//  3. Decoder: starts the decode context, optionally backed by libvips
//  4. Ledger: opens the intake database in DATABASE_DIR
//  5. Background services: metrics collector, memory monitor and, when
//     DROP_DIR is set, the drop folder watcher
//  6. HTTP servers: the API on PORT and Prometheus metrics on METRICS_PORT
//  7. Graceful shutdown on SIGINT/SIGTERM
//
// # HTTP API
//
//   - POST /api/intake: multipart "files", returns the partition and preview geometry
//   - POST /api/preview: multipart "file", returns a JPEG preview
//   - POST /api/geometry: preview geometry from known dimensions
//   - GET /api/intake/history and /api/intake/history/{id}: the ledger
//   - GET /api/config: the active policy
//   - GET /health, /livez, /readyz, /version
//
// # Drop Folder
//
// Files copied into DROP_DIR are submitted as drop batches once they have
// been unchanged for DROP_SETTLE, and recorded in the ledger like uploads.
//
// # Graceful Shutdown
//
// The API server stops accepting requests first. The decode context is
// terminated after in-flight requests finish, which resolves any decode still
// outstanding with an error, and the ledger is closed last.
//
// # Build Requirements
//
// CGO is required for SQLite and libvips. Without libvips at runtime, set
// DECODE_VIPS=false or let the decoder fall back to pure Go decoding.
package main

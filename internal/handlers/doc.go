// Package handlers provides the HTTP API of the intake server.
//
// It includes handlers for:
//   - Batch intake with per-file validation and preview geometry
//   - Rendering a JPEG preview for a single image
//   - Computing preview geometry from known dimensions
//   - The intake history ledger and the active configuration
//   - Health checks and version information
package handlers

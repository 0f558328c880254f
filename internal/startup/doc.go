// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads a .env file when one exists (ENV_FILE names another),
// then the process environment, then the optional YAML file named by
// POLICY_FILE. Keys missing from the policy file keep their environment
// values. Size strings, the aspect ratio and the panel layout are parsed
// here, so a malformed value stops the process before it serves a request.
//
// Server:
//   - DATABASE_DIR: directory for intake.db (default: ./data)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: enable the metrics server (default: true)
//   - LOG_HEALTH_CHECKS: log probe requests (default: true)
//   - MAX_UPLOAD_SIZE: multipart request cap (default: 256MB)
//   - DECODE_WORKERS: decode goroutines (default: GOMAXPROCS)
//   - DECODE_VIPS: use libvips for large images when available (default: true)
//   - DROP_DIR: watched drop folder, disabled when unset
//   - DROP_SETTLE: quiet period before dropped files are submitted (default: 2s)
//
// Intake policy:
//   - ACCEPT: comma separated .ext, type/subtype or type/* tokens
//   - MIN_FILE_SIZE, MAX_FILE_SIZE, MAX_TOTAL_FILE_SIZE: e.g. 10KB, 5MB, 1GB
//   - ALLOW_MULTIPLE: accept more than one file per batch (default: true)
//
// Preview sizing:
//   - ALLOW_IMAGE_PREVIEW (default: true), IMAGE_PREVIEW_MAX_FILE_SIZE
//   - IMAGE_PREVIEW_HEIGHT: fixed height, overrides width-derived sizing
//   - IMAGE_PREVIEW_MIN_HEIGHT, IMAGE_PREVIEW_MAX_HEIGHT (default: 44, 256)
//   - IMAGE_PREVIEW_ZOOM (default: 1), IMAGE_PREVIEW_UPSCALE (default: false)
//   - PANEL_ASPECT_RATIO: W:H, PANEL_LAYOUT: integrated, compact or circle
//
// A policy file looks like:
//
//	intake:
//	  accept: "image/*,.pdf"
//	  maxFileSize: 10MB
//	  allowMultiple: true
//	preview:
//	  layout: circle
//	  maxHeight: 320
//
// # Lifecycle Logging
//
// [LogMemoryConfig], [LogLedgerInit], [LogDecoderInit], [LogHTTPRoutes],
// [LogServerStarted] and the LogShutdown* functions print the sectioned
// startup and shutdown log.
package startup

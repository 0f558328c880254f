// Package logging provides a small leveled logger shared by every component
// of the intake service.
//
// It supports the following log levels:
//   - DEBUG: engine internals (partition decisions, correlation ids, recomputes)
//   - INFO: intake summaries and lifecycle messages
//   - WARN: dropped worker responses, decode failures, config fallbacks
//   - ERROR: failures the service cannot recover from for a request
//   - FATAL: startup errors that terminate the process
//
// The level is configured via the DEBUG or LOG_LEVEL environment variables.
// Components that want a stable prefix on every line use For:
//
//	log := logging.For("workerchan")
//	log.Debug("call %s issued", id)
package logging

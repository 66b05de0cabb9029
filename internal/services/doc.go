// Package services defines shared utilities consumed by the export stages and
// the external integrations they talk to.
//
// Key responsibilities:
//   - Context helpers that stamp export attempt IDs, stage names, and request
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so stage failures carry a
//     consistent classification (validation, external tool, timeout...).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services

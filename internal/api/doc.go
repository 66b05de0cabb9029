// Package api serves the local HTTP API: triggering exports, reading the
// export history and a health probe.
//
// # Routes
//
// POST /api/export runs one export with the posted text and answers with the
// status report. A second request while an export is running gets 409.
//
// GET /api/history lists journaled exports, newest first (?limit=N).
//
// GET /health reports liveness and uptime.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Status kinds are lowercase strings and
// timestamps are RFC3339 with milliseconds. Every request carries an
// X-Request-ID that is also logged as the correlation id.
package api

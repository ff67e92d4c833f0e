// Package internal documents the event signup server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, page rendering, and routing
// - domain: events, registrations and accounts
// - storage: the Postgres and SQLite repositories
// - validation, sanitize, slug: form input handling
// - auth, audit, config, metrics, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal

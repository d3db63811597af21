// Package internal holds the EventPro server internals.
//
// The tree is organized by responsibility:
//   - api: HTTP router, handlers, middleware and error responses
//   - domain: users, events, registrations and contact enquiries
//   - storage: the store contract with postgres, mongo and in-memory backends
//   - auth, audit, config, metrics, telemetry, seed: shared infrastructure
package internal

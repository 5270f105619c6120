// Package envstore manages variable environments and the persistence of
// collections and environments.
//
// Store is the in-memory variable store used during runs: it enforces the
// at-most-one-active-environment invariant and serializes reads and writes
// so a post-response script's mutation is visible to the next request's
// resolution. SQLiteStore is the durable persistence collaborator behind it.
package envstore

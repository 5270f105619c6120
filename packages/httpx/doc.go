// Package httpx is Courier's transport collaborator.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts and redirect handling
//   - Optional proxy and TLS verification toggles
//   - Content-Type defaulting driven by the request's body type
//   - A Response wrapper with case-insensitive header lookup
package httpx

// Package runner orchestrates request execution.
//
// One request moves through resolve, pre-script, send, post-script, and
// tests in strict order. Stage failures are recorded, not thrown: a
// resolution failure skips the send, a transport failure skips the stages
// that need a response, and script faults never stop the pipeline. A
// collection run is a sequential fold over its requests: environment
// writes from request i must be visible when request i+1 resolves, so
// collection runs are never parallelized.
package runner

// Package script executes Courier's pre-send and post-response scripts.
//
// Scripts run in a small line-oriented sub-language interpreted by this
// package, never by evaluating host code:
//
//	set token body.auth.token
//	set requestId uuid()
//	unset staleCursor
//	log header X-Request-Id
//
// The capability surface is fixed: read the resolved request, read the
// response (absent pre-send), and get/set/unset variables on the active
// environment. Runs are bounded by a wall-clock deadline and a statement
// ceiling; exceeding either, like any runtime fault, is reported in the
// Result instead of propagating.
package script

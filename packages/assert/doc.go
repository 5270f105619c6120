// Package assert evaluates Courier test scripts against a response.
//
// A test script is a sequence of named assertions, one per line:
//
//	test "created" status == 201
//	test "is json" header Content-Type contains "application/json"
//	test "has id" body.id exists
//	test "shape" body schema {"type":"object","required":["id"]}
//
// Assertions are isolated from each other: one failing or faulting line
// never stops the lines after it. A failed assertion is a normal report
// entry, not an error.
package assert

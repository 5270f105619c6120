// Package output renders collection run results.
//
// Supported output formats:
//   - Console: human-readable colored terminal output
//   - JSON: machine-readable document for tooling
package output

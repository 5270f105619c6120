// Package cmd implements the courier CLI commands using Cobra.
//
// Available commands:
//   - run: Execute a workspace collection against the active environment
//   - validate: Check workspace files without executing
//   - list: Display collections and environments in a workspace
//   - env: Inspect and mutate environments
//   - init: Create a new courier workspace with example files
//   - version: Show courier version information
//
// The CLI supports flags for environment selection, output formatting,
// rate limiting, and watch mode for development workflows.
package cmd

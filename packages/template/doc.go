// Package template expands {{identifier}} placeholders in a request's URL,
// headers, and body.
//
// Resolution rules:
//   - identifier grammar is [A-Za-z_][A-Za-z0-9_]*; anything else between
//     double braces is left as literal text
//   - request pathVariables take precedence over the active environment
//   - substitution is a single pass, values are inserted verbatim
//   - an identifier found in no scope fails resolution with a
//     ResolutionError; placeholders are never silently kept or emptied
package template

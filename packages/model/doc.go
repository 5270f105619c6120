// Package model defines Courier's persistent data model: collections of
// parameterized HTTP requests and named variable environments.
//
// Templated fields (URL, header values, body) may contain {{identifier}}
// placeholders; packages/template expands them into a ResolvedRequest,
// which is ephemeral and never persisted.
package model

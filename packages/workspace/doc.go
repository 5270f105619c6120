// Package workspace loads and saves the on-disk layout Courier works
// from: a courier.yaml manifest next to collections/ and environments/
// directories of YAML files. Files map onto the model types; the store
// built from a workspace is what a run executes against.
package workspace

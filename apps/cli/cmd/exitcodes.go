package cmd

// Exit codes for the courier CLI
const (
	// ExitSuccess indicates every request passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more requests failed
	ExitTestFailure = 1

	// ExitWorkspaceError indicates a workspace file could not be loaded
	ExitWorkspaceError = 2

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

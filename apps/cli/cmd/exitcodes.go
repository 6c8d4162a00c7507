package cmd

// Exit codes for hitclient CLI
const (
	// ExitSuccess indicates every request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates a request was rejected (bad status, schema, transform)
	ExitRequestFailure = 1

	// ExitThresholdFailure indicates a latency or error threshold was not met
	ExitThresholdFailure = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error or timeout
	ExitNetworkError = 4

	// ExitCanceled indicates the request was canceled, usually by SIGINT
	ExitCanceled = 130

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

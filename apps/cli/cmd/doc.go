// Package cmd implements the hitclient CLI commands using Cobra.
//
// Available commands:
//   - request: Send a request through the interceptor pipeline
//   - init: Write a starter .hitclient.yaml
//   - version: Show hitclient version information
//
// Settings come from the config file, HITCLIENT_* environment variables
// and flags, in increasing order of precedence.
package cmd

// Package interceptors holds ready-made request and response interceptors
// for hitclient: request IDs, client-side rate limiting, structured logging
// and JSON Schema validation of responses.
package interceptors

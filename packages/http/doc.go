// Package http provides the default hitclient adapter on top of net/http.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts, per client and per request
//   - Redirect handling
//   - Proxy and TLS verification settings
//   - Multipart form data support
//   - Abort of in-flight requests through cancel tokens
package http

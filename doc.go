// Package hitclient is a promise-style HTTP client built around an
// interceptor pipeline.
//
// A request runs through the request interceptors (most recently registered
// first), a dispatch step that applies the data transforms, flattens the
// header sections and calls the adapter once, and finally the response
// interceptors in registration order. Any stage may recover from an earlier
// failure or turn a success into one.
//
//	c := hitclient.New()
//	c.Interceptors.Request.Use(auth.Bearer(token), nil)
//	resp, err := c.Get(ctx, "https://api.example.com/items", nil)
//
// The pipeline itself lives in packages/client; this package wires it to the
// net/http adapter and the default configuration table.
package hitclient

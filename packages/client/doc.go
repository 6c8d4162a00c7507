// Package client implements the hitclient request dispatch pipeline.
//
// A Client owns a default Config and two interceptor registries. Every call to
// Request merges the per-call Config with the defaults and threads the result
// through:
//   - request interceptors, most recently registered first
//   - the core dispatch step (cancellation check, header flattening, data
//     transforms, exactly one adapter call)
//   - response interceptors, in registration order
//
// Any stage may fail the pipeline by returning an error, and any later
// rejection handler may recover it by returning a value.
package client

// Package metrics records request outcomes from the hitclient pipeline.
//
// Both recorders install a request interceptor that stamps the start time and
// a response interceptor pair that observes the outcome, so failures without
// a response are timed as well.
package metrics

import (
	"context"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

const startKey = "metrics.start"

// outcome is what a recorder learns about one settled request.
type outcome struct {
	method   string
	status   int
	code     string
	duration time.Duration
	err      error
}

func stampStart(_ context.Context, cfg *client.Config) (*client.Config, error) {
	if cfg.Extra == nil {
		cfg.Extra = make(map[string]any)
	}
	if _, ok := cfg.Extra[startKey]; !ok {
		cfg.Extra[startKey] = time.Now()
	}
	return cfg, nil
}

func elapsed(cfg *client.Config, fallback time.Duration) time.Duration {
	if cfg != nil {
		if start, ok := cfg.Extra[startKey].(time.Time); ok {
			return time.Since(start)
		}
	}
	return fallback
}

// observe turns a recorder callback into a pass-through response
// interceptor pair.
func observe(record func(outcome)) (client.Fulfilled[*client.Response], client.Rejected[*client.Response]) {
	onFulfilled := func(_ context.Context, resp *client.Response) (*client.Response, error) {
		if resp == nil {
			return resp, nil
		}
		o := outcome{status: resp.Status, duration: elapsed(resp.Config, resp.Duration)}
		if resp.Config != nil {
			o.method = resp.Config.Method
		}
		record(o)
		return resp, nil
	}

	onRejected := func(_ context.Context, reason error) (*client.Response, error) {
		o := outcome{err: reason, code: "ERROR"}
		if client.IsCancel(reason) {
			o.code = "CANCELED"
		}
		if e, ok := client.AsError(reason); ok {
			o.code = e.Code
			if e.Config != nil {
				o.method = e.Config.Method
			}
			o.duration = elapsed(e.Config, 0)
			if e.Response != nil {
				o.status = e.Response.Status
				if o.duration == 0 {
					o.duration = e.Response.Duration
				}
			}
		}
		record(o)
		return nil, reason
	}

	return onFulfilled, onRejected
}

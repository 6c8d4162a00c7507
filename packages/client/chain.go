package client

import (
	"context"
)

// chain is the per-request execution plan: request stages, the core dispatch
// step, then response stages. It is built fresh for every request.
type chain struct {
	request  []Interceptor[*Config]
	dispatch func(ctx context.Context, cfg *Config) (*Response, error)
	response []Interceptor[*Response]
}

// buildChain prepends request interceptors, so the most recently registered
// one runs first, and appends response interceptors in registration order.
func buildChain(ic Interceptors, dispatch func(context.Context, *Config) (*Response, error)) *chain {
	c := &chain{dispatch: dispatch}

	ic.Request.ForEach(func(i Interceptor[*Config]) {
		c.request = append([]Interceptor[*Config]{i}, c.request...)
	})
	ic.Response.ForEach(func(i Interceptor[*Response]) {
		c.response = append(c.response, i)
	})

	return c
}

// run folds the seed configuration through every stage in order. The
// dispatch step has no rejection handler: an error coming out of the request
// stages skips it and flows into the response stages unchanged.
func (c *chain) run(ctx context.Context, cfg *Config) (*Response, error) {
	var err error
	for _, stage := range c.request {
		cfg, err = stage.settle(ctx, cfg, err)
		if err == nil && cfg == nil {
			err = ErrNilConfig
		}
	}

	var resp *Response
	if err == nil {
		resp, err = c.dispatch(ctx, cfg)
	}

	for _, stage := range c.response {
		resp, err = stage.settle(ctx, resp, err)
	}
	return resp, err
}

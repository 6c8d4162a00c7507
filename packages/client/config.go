package client

import (
	"context"
	"time"
)

// Transformer rewrites a request or response body. Headers may be inspected
// and mutated.
type Transformer func(data any, headers Headers) (any, error)

// Adapter performs the network exchange for one effective configuration.
type Adapter interface {
	Do(ctx context.Context, cfg *Config) (*Response, error)
}

// AdapterFunc lets an ordinary function serve as an Adapter.
type AdapterFunc func(ctx context.Context, cfg *Config) (*Response, error)

func (f AdapterFunc) Do(ctx context.Context, cfg *Config) (*Response, error) {
	return f(ctx, cfg)
}

// CancelToken is the query side of a cancellation token.
type CancelToken interface {
	Requested() bool
	Reason() error
}

// BasicAuth holds HTTP basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Config describes one request, or a client's defaults.
type Config struct {
	URL     string
	BaseURL string
	Method  string
	Headers Headers
	Data    any

	Params           map[string]string
	ParamsSerializer func(map[string]string) string

	TransformRequest  []Transformer
	TransformResponse []Transformer

	Adapter     Adapter
	CancelToken CancelToken

	// Timeout bounds a single adapter call. Zero leaves it to the adapter.
	Timeout        time.Duration
	ValidateStatus func(status int) bool
	Auth           *BasicAuth

	// Extra carries free-form transport options.
	Extra map[string]any
}

// Clone returns a copy that shares no maps with c. Data, functions and the
// adapter are shared.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	out := *c
	out.Headers = c.Headers.Clone()
	out.Params = cloneStrings(c.Params)
	out.Extra = cloneAny(c.Extra)
	if c.TransformRequest != nil {
		out.TransformRequest = append([]Transformer(nil), c.TransformRequest...)
	}
	if c.TransformResponse != nil {
		out.TransformResponse = append([]Transformer(nil), c.TransformResponse...)
	}
	if c.Auth != nil {
		auth := *c.Auth
		out.Auth = &auth
	}
	return &out
}

// FullURL joins BaseURL and URL unless URL is already absolute.
func (c *Config) FullURL() string {
	if c.BaseURL != "" && !IsAbsoluteURL(c.URL) {
		return CombineURLs(c.BaseURL, c.URL)
	}
	return c.URL
}

// StatusValid applies ValidateStatus, defaulting to 2xx.
func (c *Config) StatusValid(status int) bool {
	if c.ValidateStatus == nil {
		return status >= 200 && status < 300
	}
	return c.ValidateStatus(status)
}

func cloneStrings(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAny(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = cloneAny(nested)
		}
		out[k] = v
	}
	return out
}

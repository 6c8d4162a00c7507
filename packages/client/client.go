package client

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

// Client dispatches requests through its interceptor registries. It is safe
// for concurrent use; each request builds its own chain and configuration.
type Client struct {
	defaults *Config
	adapter  Adapter
	logger   logrus.FieldLogger

	Interceptors Interceptors
}

type Option func(*Client)

// WithAdapter sets the adapter used when a request does not name one.
func WithAdapter(a Adapter) Option {
	return func(c *Client) {
		c.adapter = a
	}
}

// WithLogger sets the logger used for pipeline debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client that owns a copy of defaults.
func New(defaults *Config, opts ...Option) *Client {
	c := &Client{
		defaults: defaults.Clone(),
		logger:   discardLogger(),
		Interceptors: Interceptors{
			Request:  NewInterceptorManager[*Config](),
			Response: NewInterceptorManager[*Response](),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Defaults returns a copy of the client's default configuration.
func (c *Client) Defaults() *Config {
	return c.defaults.Clone()
}

// Request merges cfg with the client defaults and runs the pipeline.
func (c *Client) Request(ctx context.Context, cfg *Config) (*Response, error) {
	effective := Merge(c.defaults, cfg)
	effective.Method = c.resolveMethod(effective)

	return buildChain(c.Interceptors, c.dispatchRequest).run(ctx, effective)
}

// RequestURL is Request with the URL given separately. cfg may be nil and is
// not modified.
func (c *Client) RequestURL(ctx context.Context, url string, cfg *Config) (*Response, error) {
	cfg = cfg.Clone()
	cfg.URL = url
	return c.Request(ctx, cfg)
}

func (c *Client) resolveMethod(cfg *Config) string {
	switch {
	case cfg.Method != "":
		return strings.ToLower(cfg.Method)
	case c.defaults.Method != "":
		return strings.ToLower(c.defaults.Method)
	default:
		return "get"
	}
}

// GetURI returns the merged URL with its serialized params.
func (c *Client) GetURI(cfg *Config) string {
	merged := Merge(c.defaults, cfg)
	uri := BuildURL(merged.URL, merged.Params, merged.ParamsSerializer)
	return strings.TrimPrefix(uri, "?")
}

func (c *Client) Get(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodGet, url, nil))
}

func (c *Client) Delete(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodDelete, url, nil))
}

func (c *Client) Head(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodHead, url, nil))
}

func (c *Client) Options(ctx context.Context, url string, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodOptions, url, nil))
}

func (c *Client) Post(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodPost, url, data))
}

func (c *Client) Put(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodPut, url, data))
}

func (c *Client) Patch(ctx context.Context, url string, data any, cfg *Config) (*Response, error) {
	return c.Request(ctx, aliasConfig(cfg, http.MethodPatch, url, data))
}

func aliasConfig(cfg *Config, method, url string, data any) *Config {
	out := cfg.Clone()
	out.Method = method
	out.URL = url
	if data != nil {
		out.Data = data
	}
	return out
}

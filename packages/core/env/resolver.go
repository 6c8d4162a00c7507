package env

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver expands {{...}} placeholders. It is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	vars     map[string]string
	captures map[string]string
	funcs    map[string]Func

	strict bool
	logger logrus.FieldLogger
}

type Option func(*Resolver)

// WithStrict makes Interceptor reject requests that still contain
// unresolved placeholders.
func WithStrict(strict bool) Option {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// WithLogger sets where unresolved placeholders are reported.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

func NewResolver(opts ...Option) *Resolver {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	r := &Resolver{
		vars:     make(map[string]string),
		captures: make(map[string]string),
		funcs:    defaultFuncs(),
		logger:   discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.vars[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[name] = value
}

func (r *Resolver) SetCapture(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captures[name] = value
}

// Register adds or replaces a built-in function.
func (r *Resolver) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Lookup returns the value of a captured or user variable, captures first.
func (r *Resolver) Lookup(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.captures[name]; ok {
		return v, true
	}
	v, ok := r.vars[name]
	return v, ok
}

// Expand replaces every placeholder it can resolve and returns the
// placeholders it could not, in order of appearance.
func (r *Resolver) Expand(input string) (string, []string) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	var unresolved []string
	out := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		if val, ok := r.eval(expr); ok {
			return val
		}
		unresolved = append(unresolved, expr)
		return match
	})
	return out, unresolved
}

func (r *Resolver) eval(expr string) (string, bool) {
	if name, ok := strings.CutPrefix(expr, "$"); ok {
		return os.LookupEnv(name)
	}

	if m := callPattern.FindStringSubmatch(expr); m != nil {
		r.mu.RLock()
		fn, ok := r.funcs[m[1]]
		r.mu.RUnlock()
		if !ok {
			return "", false
		}
		val, err := fn(splitArgs(m[2]))
		if err != nil {
			r.logger.WithError(err).WithField("func", m[1]).Warn("built-in function failed")
			return "", false
		}
		return val, true
	}

	return r.Lookup(expr)
}

// Interceptor returns a request interceptor that expands placeholders in the
// URL, base URL, params, headers (sections included) and string or byte
// bodies.
func (r *Resolver) Interceptor() client.Fulfilled[*client.Config] {
	return func(_ context.Context, cfg *client.Config) (*client.Config, error) {
		var missing []string
		expand := func(s string) string {
			out, m := r.Expand(s)
			missing = append(missing, m...)
			return out
		}

		cfg.URL = expand(cfg.URL)
		cfg.BaseURL = expand(cfg.BaseURL)
		if cfg.Params != nil {
			params := make(map[string]string, len(cfg.Params))
			for k, v := range cfg.Params {
				params[k] = expand(v)
			}
			cfg.Params = params
		}
		cfg.Headers = expandHeaders(cfg.Headers, expand)

		switch data := cfg.Data.(type) {
		case string:
			cfg.Data = expand(data)
		case json.RawMessage:
			cfg.Data = json.RawMessage(expand(string(data)))
		case []byte:
			cfg.Data = []byte(expand(string(data)))
		}

		if len(missing) > 0 {
			if r.strict {
				return nil, fmt.Errorf("unresolved variables: %s", strings.Join(missing, ", "))
			}
			r.logger.WithField("variables", missing).Warn("unresolved variables left in request")
		}
		return cfg, nil
	}
}

func expandHeaders(h client.Headers, expand func(string) string) client.Headers {
	if h == nil {
		return nil
	}
	out := make(client.Headers, len(h))
	for k, v := range h {
		switch val := v.(type) {
		case string:
			out[k] = expand(val)
		case client.Headers:
			out[k] = expandHeaders(val, expand)
		case map[string]any:
			out[k] = expandHeaders(client.Headers(val), expand)
		default:
			out[k] = v
		}
	}
	return out
}

// CaptureSource says where a captured value comes from.
type CaptureSource string

const (
	CaptureBody   CaptureSource = "body"
	CaptureHeader CaptureSource = "header"
	CaptureStatus CaptureSource = "status"
)

// Capture names a value to keep from each response.
type Capture struct {
	Name   string
	Source CaptureSource
	// Path is a gjson path for body captures and a header name for header
	// captures. An empty body path captures the whole body.
	Path string
}

// ParseCapture parses "name=path", "name=header:X-Token" or "name=status".
func ParseCapture(s string) (Capture, error) {
	name, spec, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Capture{}, fmt.Errorf("invalid capture %q, expected name=path", s)
	}
	spec = strings.TrimSpace(spec)

	switch {
	case spec == string(CaptureStatus):
		return Capture{Name: name, Source: CaptureStatus}, nil
	case strings.HasPrefix(spec, "header:"):
		return Capture{Name: name, Source: CaptureHeader, Path: strings.TrimPrefix(spec, "header:")}, nil
	default:
		return Capture{Name: name, Source: CaptureBody, Path: strings.TrimPrefix(spec, "body:")}, nil
	}
}

func (c Capture) extract(resp *client.Response) (string, bool) {
	switch c.Source {
	case CaptureStatus:
		return strconv.Itoa(resp.Status), true
	case CaptureHeader:
		v := resp.Header(c.Path)
		return v, v != ""
	default:
		if c.Path == "" {
			return resp.BodyString(), true
		}
		result := gjson.GetBytes(resp.Body, c.Path)
		return result.String(), result.Exists()
	}
}

// Capture returns a response interceptor that stores the listed values from
// every successful response. Values missing from a response are left as they
// were.
func (r *Resolver) Capture(captures ...Capture) client.Fulfilled[*client.Response] {
	return func(_ context.Context, resp *client.Response) (*client.Response, error) {
		if resp == nil {
			return resp, nil
		}
		for _, c := range captures {
			if v, ok := c.extract(resp); ok {
				r.SetCapture(c.Name, v)
			}
		}
		return resp, nil
	}
}

// Captures returns a copy of the captured values.
func (r *Resolver) Captures() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.captures))
	for k, v := range r.captures {
		out[k] = v
	}
	return out
}

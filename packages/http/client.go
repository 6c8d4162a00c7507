package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// Adapter performs requests over net/http. It implements client.Adapter.
type Adapter struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
}

type Option func(*Adapter)

// doneSignal is implemented by cancel tokens that can interrupt an exchange
// already in flight.
type doneSignal interface {
	Done() <-chan struct{}
}

func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.httpClient != nil {
		return a
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	// Configure TLS verification
	if !a.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if a.proxyURL != "" {
		proxyURL, err := neturl.Parse(a.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !a.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= a.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	a.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       a.timeout,
		CheckRedirect: redirectPolicy,
	}

	return a
}

func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.timeout = d
	}
}

func WithFollowRedirects(follow bool) Option {
	return func(a *Adapter) {
		a.followRedirect = follow
	}
}

func WithMaxRedirects(max int) Option {
	return func(a *Adapter) {
		a.maxRedirects = max
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) Option {
	return func(a *Adapter) {
		a.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) Option {
	return func(a *Adapter) {
		a.proxyURL = proxyURL
	}
}

// WithHTTPClient makes the adapter use hc as is. Timeout, redirect, TLS and
// proxy options are ignored when it is set.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = hc
	}
}

// Do sends the request described by cfg and settles it against
// cfg.ValidateStatus.
func (a *Adapter) Do(ctx context.Context, cfg *client.Config) (*client.Response, error) {
	fullURL := client.BuildURL(cfg.FullURL(), cfg.Params, cfg.ParamsSerializer)
	if err := ValidateURL(fullURL); err != nil {
		return nil, client.NewError(err.Error(), client.CodeBadRequest, cfg, nil, err)
	}

	body, contentType, err := encodeBody(cfg.Data)
	if err != nil {
		return nil, client.NewError("failed to encode request body", client.CodeBadRequest, cfg, nil, err)
	}

	if cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, cfg.Timeout)
		defer cancelTimeout()
	}

	if sig, ok := cfg.CancelToken.(doneSignal); ok {
		var stop context.CancelFunc
		ctx, stop = context.WithCancel(ctx)
		defer stop()
		go func() {
			select {
			case <-sig.Done():
				stop()
			case <-ctx.Done():
			}
		}()
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, client.NewError(err.Error(), client.CodeBadRequest, cfg, nil, err)
	}

	for k, v := range cfg.Headers.Values() {
		httpReq.Header.Set(k, v)
	}

	if body == nil {
		httpReq.Header.Del("Content-Type")
	} else if contentType != "" && (httpReq.Header.Get("Content-Type") == "" || isMultipart(contentType)) {
		// multipart boundaries are only known after encoding
		httpReq.Header.Set("Content-Type", contentType)
	}

	if cfg.Auth != nil {
		httpReq.SetBasicAuth(cfg.Auth.Username, cfg.Auth.Password)
	}

	start := time.Now()
	httpResp, err := a.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, a.transportError(ctx, cfg, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, a.transportError(ctx, cfg, err)
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	resp := &client.Response{
		Status:     httpResp.StatusCode,
		StatusText: strings.TrimSpace(strings.TrimPrefix(httpResp.Status, fmt.Sprint(httpResp.StatusCode))),
		Headers:    headers,
		Body:       respBody,
		Data:       respBody,
		Config:     cfg,
		Duration:   duration,
	}

	if !cfg.StatusValid(resp.Status) {
		return nil, client.NewError(
			fmt.Sprintf("request failed with status code %d", resp.Status),
			client.CodeBadResponse, cfg, resp, nil,
		)
	}

	return resp, nil
}

func (a *Adapter) transportError(ctx context.Context, cfg *client.Config, err error) error {
	if cfg.CancelToken != nil && cfg.CancelToken.Requested() {
		if reason := cfg.CancelToken.Reason(); reason != nil {
			return reason
		}
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return &cancel.Cancel{Message: ctx.Err().Error()}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		msg := "timeout exceeded"
		if cfg.Timeout > 0 {
			msg = fmt.Sprintf("timeout of %s exceeded", cfg.Timeout)
		}
		return client.NewError(msg, client.CodeTimeout, cfg, nil, err)
	}

	return client.NewError("network error", client.CodeNetwork, cfg, nil, err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isMultipart(contentType string) bool {
	return strings.HasPrefix(contentType, "multipart/")
}

// encodeBody turns request data into a body reader. Data normally arrives
// already transformed; structured values are JSON-encoded as a fallback.
func encodeBody(data any) (io.Reader, string, error) {
	switch v := data.(type) {
	case nil:
		return nil, "", nil
	case string:
		if v == "" {
			return nil, "", nil
		}
		return strings.NewReader(v), "", nil
	case []byte:
		if len(v) == 0 {
			return nil, "", nil
		}
		return bytes.NewReader(v), "", nil
	case client.BodyEncoder:
		return v.EncodeBody()
	case io.Reader:
		return v, "", nil
	case neturl.Values:
		return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded", nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

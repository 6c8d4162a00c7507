package client

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is the settled value of a successful exchange.
type Response struct {
	Status     int
	StatusText string
	Headers    map[string]string
	// Body is the raw payload as read by the adapter.
	Body []byte
	// Data is Body after the response transforms ran.
	Data     any
	Config   *Config
	Duration time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the response header named key, matched case-insensitively.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400
}

func (r *Response) IsClientError() bool {
	return r.Status >= 400 && r.Status < 500
}

func (r *Response) IsServerError() bool {
	return r.Status >= 500
}

// Get evaluates a gjson path against the raw body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

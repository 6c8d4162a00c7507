package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"

	"github.com/tidwall/gjson"
)

// BodyEncoder is implemented by request bodies that know how to encode
// themselves, such as multipart forms. Transforms pass them through untouched.
type BodyEncoder interface {
	EncodeBody() (body io.Reader, contentType string, err error)
}

const (
	contentTypeJSON = "application/json;charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded;charset=utf-8"
)

// transformData applies fns left to right.
func transformData(data any, headers Headers, fns []Transformer) (any, error) {
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		var err error
		data, err = fn(data, headers)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// transformResponse runs cfg's response transforms over resp.Data. Header
// changes made by a transform are written back to resp.
func transformResponse(cfg *Config, resp *Response) error {
	if len(cfg.TransformResponse) == 0 {
		return nil
	}
	headers := make(Headers, len(resp.Headers))
	for k, v := range resp.Headers {
		headers[k] = v
	}

	data, err := transformData(resp.Data, headers, cfg.TransformResponse)
	if err != nil {
		return fmt.Errorf("transform response: %w", err)
	}
	resp.Data = data
	resp.Headers = headers.Values()
	return nil
}

// DefaultTransformRequest serializes structured bodies. Strings, byte slices,
// readers and BodyEncoders pass through, url.Values become a form body and
// anything else is encoded as JSON. Content-Type is only set when absent.
func DefaultTransformRequest(data any, headers Headers) (any, error) {
	switch v := data.(type) {
	case nil, string, []byte, io.Reader, BodyEncoder:
		return data, nil
	case url.Values:
		setContentTypeIfUnset(headers, contentTypeForm)
		return v.Encode(), nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	setContentTypeIfUnset(headers, contentTypeJSON)
	return b, nil
}

// DefaultTransformResponse decodes JSON payloads into Go values and turns any
// other payload into a string. Malformed JSON is left as text.
func DefaultTransformResponse(data any, _ Headers) (any, error) {
	var raw []byte
	switch v := data.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return data, nil
	}

	if len(bytes.TrimSpace(raw)) > 0 && gjson.ValidBytes(raw) {
		return gjson.ParseBytes(raw).Value(), nil
	}
	return string(raw), nil
}

func setContentTypeIfUnset(headers Headers, value string) {
	if headers != nil && !headers.Has("Content-Type") {
		headers.Set("Content-Type", value)
	}
}

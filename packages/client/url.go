package client

import (
	"net/url"
	"regexp"
	"strings"
)

var absoluteURLPattern = regexp.MustCompile(`^([a-zA-Z][a-zA-Z\d+\-.]*:)?//`)

// IsAbsoluteURL reports whether u has a scheme or is protocol-relative.
func IsAbsoluteURL(u string) bool {
	return absoluteURLPattern.MatchString(u)
}

// CombineURLs joins a base and a relative URL with exactly one slash.
func CombineURLs(baseURL, relativeURL string) string {
	if relativeURL == "" {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(relativeURL, "/")
}

// BuildURL appends serialized params to rawURL, dropping any fragment.
func BuildURL(rawURL string, params map[string]string, serializer func(map[string]string) string) string {
	if len(params) == 0 {
		return rawURL
	}

	var query string
	if serializer != nil {
		query = serializer(params)
	} else {
		query = SerializeParams(params)
	}
	if query == "" {
		return rawURL
	}

	if i := strings.Index(rawURL, "#"); i != -1 {
		rawURL = rawURL[:i]
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}

// SerializeParams encodes params as a query string with keys in sorted order.
func SerializeParams(params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	return q.Encode()
}

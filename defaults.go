package hitclient

import (
	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

const (
	defaultAccept      = "application/json, text/plain, */*"
	defaultContentType = "application/x-www-form-urlencoded"
)

// Defaults returns a fresh copy of the default configuration table. Callers
// may modify the result freely.
func Defaults() *client.Config {
	headers := client.Headers{
		client.CommonSection: client.Headers{"Accept": defaultAccept},
	}
	for _, method := range []string{"delete", "get", "head"} {
		headers[method] = client.Headers{}
	}
	for _, method := range []string{"post", "put", "patch"} {
		headers[method] = client.Headers{"Content-Type": defaultContentType}
	}

	return &client.Config{
		Method:            "get",
		Headers:           headers,
		TransformRequest:  []client.Transformer{client.DefaultTransformRequest},
		TransformResponse: []client.Transformer{client.DefaultTransformResponse},
		ValidateStatus: func(status int) bool {
			return status >= 200 && status < 300
		},
	}
}

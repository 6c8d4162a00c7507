package interceptors

import (
	"context"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/google/uuid"
)

// DefaultRequestIDHeader is used when RequestID is given an empty header name.
const DefaultRequestIDHeader = "X-Request-ID"

// RequestID tags every request with a random UUID unless the caller already
// set one.
func RequestID(header string) client.Fulfilled[*client.Config] {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(_ context.Context, cfg *client.Config) (*client.Config, error) {
		if cfg.Headers == nil {
			cfg.Headers = client.Headers{}
		}
		if !cfg.Headers.Has(header) {
			cfg.Headers.Set(header, uuid.New().String())
		}
		return cfg, nil
	}
}

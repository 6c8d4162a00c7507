package hitclient

import (
	"context"

	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
	"github.com/abdul-hamid-achik/hitclient/packages/client"
	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
	"golang.org/x/sync/errgroup"
)

type (
	Client   = client.Client
	Config   = client.Config
	Response = client.Response
	Headers  = client.Headers
	Error    = client.Error
)

// Call is one request to run as part of All.
type Call func(ctx context.Context) (*client.Response, error)

// New returns a client with the default configuration and the net/http
// adapter. Options are applied after the defaults, so WithAdapter replaces
// the adapter.
func New(opts ...client.Option) *client.Client {
	return Create(nil, opts...)
}

// Create returns a client whose defaults are Defaults() merged with
// instanceConfig.
func Create(instanceConfig *client.Config, opts ...client.Option) *client.Client {
	defaults := client.Merge(Defaults(), instanceConfig)
	opts = append([]client.Option{client.WithAdapter(hithttp.NewAdapter())}, opts...)
	return client.New(defaults, opts...)
}

// All runs calls concurrently and returns their responses in call order. The
// first failure cancels the context handed to the remaining calls and is
// returned.
func All(ctx context.Context, calls ...Call) ([]*client.Response, error) {
	responses := make([]*client.Response, len(calls))
	g, gctx := errgroup.WithContext(ctx)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			resp, err := call(gctx)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return responses, nil
}

// IsCancel reports whether err came from a cancelled request.
func IsCancel(err error) bool {
	return cancel.IsCancel(err)
}

// NewCancelSource returns a cancel token and the function that signals it.
func NewCancelSource() cancel.Source {
	return cancel.NewSource()
}

package client

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/hitclient/packages/cancel"
	"github.com/sirupsen/logrus"
)

// throwIfCancellationRequested returns the token's cancellation error when the
// caller has asked to abort.
func throwIfCancellationRequested(cfg *Config) error {
	if cfg.CancelToken == nil || !cfg.CancelToken.Requested() {
		return nil
	}
	if reason := cfg.CancelToken.Reason(); reason != nil {
		return reason
	}
	return &cancel.Cancel{}
}

// dispatchRequest is the core step between the request and response
// interceptors. It invokes the adapter exactly once.
func (c *Client) dispatchRequest(ctx context.Context, cfg *Config) (*Response, error) {
	if err := throwIfCancellationRequested(cfg); err != nil {
		return nil, err
	}

	if cfg.Headers == nil {
		cfg.Headers = Headers{}
	}

	data, err := transformData(cfg.Data, cfg.Headers, cfg.TransformRequest)
	if err != nil {
		return nil, fmt.Errorf("transform request: %w", err)
	}
	cfg.Data = data

	cfg.Headers = cfg.Headers.Flatten(cfg.Method)

	adapter := cfg.Adapter
	if adapter == nil {
		adapter = c.adapter
	}
	if adapter == nil {
		return nil, ErrNoAdapter
	}

	log := c.logger.WithFields(logrus.Fields{
		"method": cfg.Method,
		"url":    cfg.FullURL(),
	})
	log.Debug("dispatching request")

	resp, err := adapter.Do(ctx, cfg)
	if err != nil {
		log.WithError(err).Debug("adapter rejected")
		return nil, onAdapterRejection(cfg, err)
	}
	if resp == nil {
		return nil, NewError("adapter returned no response", CodeBadResponse, cfg, nil, nil)
	}

	log.WithField("status", resp.Status).Debug("adapter settled")
	return onAdapterResolution(cfg, resp)
}

func onAdapterResolution(cfg *Config, resp *Response) (*Response, error) {
	if err := throwIfCancellationRequested(cfg); err != nil {
		return nil, err
	}
	if resp.Config == nil {
		resp.Config = cfg
	}
	if err := transformResponse(cfg, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func onAdapterRejection(cfg *Config, reason error) error {
	if IsCancel(reason) {
		return reason
	}
	if err := throwIfCancellationRequested(cfg); err != nil {
		return err
	}
	if e, ok := AsError(reason); ok && e.Response != nil {
		if err := transformResponse(cfg, e.Response); err != nil {
			return err
		}
	}
	return reason
}

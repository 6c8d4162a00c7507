package interceptors

import (
	"context"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"github.com/sirupsen/logrus"
)

// LogRequests logs every outgoing request at info level. Register it before
// RequestID so the generated ID is already set when it runs.
func LogRequests(logger logrus.FieldLogger) client.Fulfilled[*client.Config] {
	return func(_ context.Context, cfg *client.Config) (*client.Config, error) {
		fields := logrus.Fields{
			"method": cfg.Method,
			"url":    cfg.FullURL(),
		}
		if id := cfg.Headers.Get(DefaultRequestIDHeader); id != "" {
			fields["request_id"] = id
		}
		logger.WithFields(fields).Info("request")
		return cfg, nil
	}
}

// LogResponses returns a response interceptor pair that logs settled
// responses at info level and failures at warn level. Neither handler changes
// the outcome.
func LogResponses(logger logrus.FieldLogger) (client.Fulfilled[*client.Response], client.Rejected[*client.Response]) {
	onFulfilled := func(_ context.Context, resp *client.Response) (*client.Response, error) {
		if resp == nil {
			return resp, nil
		}
		fields := logrus.Fields{
			"status":      resp.Status,
			"duration_ms": resp.DurationMs(),
		}
		if resp.Config != nil {
			fields["method"] = resp.Config.Method
			fields["url"] = resp.Config.FullURL()
		}
		logger.WithFields(fields).Info("response")
		return resp, nil
	}

	onRejected := func(_ context.Context, reason error) (*client.Response, error) {
		entry := logger.WithError(reason)
		if e, ok := client.AsError(reason); ok {
			entry = entry.WithField("code", e.Code)
			if e.Response != nil {
				entry = entry.WithField("status", e.Response.Status)
			}
		}
		if client.IsCancel(reason) {
			entry.Info("request canceled")
		} else {
			entry.Warn("request failed")
		}
		return nil, reason
	}

	return onFulfilled, onRejected
}

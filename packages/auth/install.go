package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

// Scheme names accepted by Install.
const (
	SchemeBasic       = "basic"
	SchemeBearer      = "bearer"
	SchemeAPIKey      = "apikey"
	SchemeAPIKeyQuery = "apikey-query"
	SchemeDigest      = "digest"
	SchemeAWS         = "aws"
	SchemeOAuth2      = "oauth2"
)

// ParseScheme splits an auth flag value such as "basic user pass" into its
// scheme and positional parameters.
func ParseScheme(value string) (string, []string) {
	parts := strings.Fields(value)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

// Install registers the interceptors for scheme on c. AWS signing wraps base,
// which should be the adapter c dispatches to.
func Install(ctx context.Context, c *client.Client, base client.Adapter, scheme string, params []string) error {
	need := func(n int, usage string) error {
		if len(params) < n {
			return fmt.Errorf("%s auth requires: %s", scheme, usage)
		}
		return nil
	}

	switch strings.ToLower(scheme) {
	case SchemeBasic:
		if err := need(2, "username password"); err != nil {
			return err
		}
		c.Interceptors.Request.Use(Basic(params[0], params[1]), nil)
	case SchemeBearer:
		if err := need(1, "token"); err != nil {
			return err
		}
		c.Interceptors.Request.Use(Bearer(params[0]), nil)
	case SchemeAPIKey:
		if err := need(2, "header value"); err != nil {
			return err
		}
		c.Interceptors.Request.Use(APIKey(params[0], params[1]), nil)
	case SchemeAPIKeyQuery:
		if err := need(2, "param value"); err != nil {
			return err
		}
		c.Interceptors.Request.Use(APIKeyQuery(params[0], params[1]), nil)
	case SchemeDigest:
		if err := need(2, "username password"); err != nil {
			return err
		}
		c.Interceptors.Response.Use(Digest(c, params[0], params[1]))
	case SchemeAWS:
		if err := need(4, "accessKey secretKey region service"); err != nil {
			return err
		}
		if base == nil {
			return fmt.Errorf("aws auth requires an adapter to wrap")
		}
		signed := AWSSigV4(AWSCredentials{
			AccessKey: params[0],
			SecretKey: params[1],
			Region:    params[2],
			Service:   params[3],
		}, base)
		c.Interceptors.Request.Use(func(_ context.Context, cfg *client.Config) (*client.Config, error) {
			if cfg.Adapter == nil {
				cfg.Adapter = signed
			}
			return cfg, nil
		}, nil)
	case SchemeOAuth2:
		oc, err := ParseOAuth2Params(params)
		if err != nil {
			return err
		}
		ts, err := oc.TokenSource(ctx)
		if err != nil {
			return err
		}
		c.Interceptors.Request.Use(OAuth2(ts), nil)
	default:
		return fmt.Errorf("unsupported auth type: %s", scheme)
	}

	return nil
}

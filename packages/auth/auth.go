package auth

import (
	"context"
	"encoding/base64"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

// Basic sets an Authorization header with HTTP basic credentials.
func Basic(username, password string) client.Fulfilled[*client.Config] {
	encoded := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return setHeader("Authorization", "Basic "+encoded)
}

// Bearer sets an Authorization header carrying token.
func Bearer(token string) client.Fulfilled[*client.Config] {
	return setHeader("Authorization", "Bearer "+token)
}

// APIKey sends an API key in the named header.
func APIKey(header, key string) client.Fulfilled[*client.Config] {
	return setHeader(header, key)
}

// APIKeyQuery sends an API key as a query parameter.
func APIKeyQuery(param, key string) client.Fulfilled[*client.Config] {
	return func(_ context.Context, cfg *client.Config) (*client.Config, error) {
		if cfg.Params == nil {
			cfg.Params = make(map[string]string)
		}
		cfg.Params[param] = key
		return cfg, nil
	}
}

func setHeader(key, value string) client.Fulfilled[*client.Config] {
	return func(_ context.Context, cfg *client.Config) (*client.Config, error) {
		if cfg.Headers == nil {
			cfg.Headers = client.Headers{}
		}
		cfg.Headers.Set(key, value)
		return cfg, nil
	}
}

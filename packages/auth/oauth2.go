package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	// ClientCredentials is the client_credentials grant type
	ClientCredentials GrantType = "client_credentials"
	// Password is the password (resource owner) grant type
	Password GrantType = "password"
)

// OAuth2Config holds OAuth2 configuration
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // For password grant
	Password     string // For password grant
	GrantType    GrantType

	// HTTPClient is used for token requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// TokenSource returns a caching token source for cfg. Tokens are fetched on
// first use and refreshed when they expire.
func (cfg *OAuth2Config) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if cfg.TokenURL == "" {
		return nil, fmt.Errorf("oauth2: token URL is required")
	}
	if cfg.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cfg.HTTPClient)
	}

	switch cfg.GrantType {
	case Password:
		conf := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
			Scopes:       cfg.Scopes,
		}
		return oauth2.ReuseTokenSource(nil, &passwordSource{
			ctx:      ctx,
			conf:     conf,
			username: cfg.Username,
			password: cfg.Password,
		}), nil
	case ClientCredentials, "":
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		return cc.TokenSource(ctx), nil
	default:
		return nil, fmt.Errorf("unsupported OAuth2 grant type: %s", cfg.GrantType)
	}
}

// passwordSource runs the resource owner password grant on every call;
// ReuseTokenSource keeps it from being hit while a token is valid.
type passwordSource struct {
	ctx      context.Context
	conf     *oauth2.Config
	username string
	password string
}

func (s *passwordSource) Token() (*oauth2.Token, error) {
	return s.conf.PasswordCredentialsToken(s.ctx, s.username, s.password)
}

// OAuth2 sets the Authorization header from ts on every request.
func OAuth2(ts oauth2.TokenSource) client.Fulfilled[*client.Config] {
	return func(_ context.Context, cfg *client.Config) (*client.Config, error) {
		tok, err := ts.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to get OAuth2 token: %w", err)
		}
		if cfg.Headers == nil {
			cfg.Headers = client.Headers{}
		}
		cfg.Headers.Set("Authorization", tok.Type()+" "+tok.AccessToken)
		return cfg, nil
	}
}

// ParseOAuth2Params parses a space separated OAuth2 flag value.
// Format: client_credentials tokenUrl clientId clientSecret [scope1,scope2]
// Or: password tokenUrl clientId clientSecret username password [scope1,scope2]
func ParseOAuth2Params(params []string) (*OAuth2Config, error) {
	if len(params) < 4 {
		return nil, fmt.Errorf("oauth2 auth requires at least: grant_type tokenUrl clientId clientSecret")
	}

	config := &OAuth2Config{
		GrantType:    GrantType(params[0]),
		TokenURL:     params[1],
		ClientID:     params[2],
		ClientSecret: params[3],
	}

	switch config.GrantType {
	case ClientCredentials:
		if len(params) > 4 {
			config.Scopes = strings.Split(params[4], ",")
		}
	case Password:
		if len(params) < 6 {
			return nil, fmt.Errorf("oauth2 password grant requires: tokenUrl clientId clientSecret username password [scopes]")
		}
		config.Username = params[4]
		config.Password = params[5]
		if len(params) > 6 {
			config.Scopes = strings.Split(params[6], ",")
		}
	default:
		return nil, fmt.Errorf("unsupported OAuth2 grant type: %s", config.GrantType)
	}

	return config, nil
}

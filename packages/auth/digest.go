package auth

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

// digestRetryKey marks a configuration that already carries a digest answer.
const digestRetryKey = "auth.digest.retried"

// DigestAuth contains the parameters needed for digest authentication
type DigestAuth struct {
	Username string
	Password string
	Realm    string
	Nonce    string
	URI      string
	Qop      string
	Nc       string
	Cnonce   string
	Opaque   string
	Method   string
}

// Digest returns a response interceptor pair that answers a 401 Digest
// challenge by re-issuing the request once through c with an Authorization
// header. Register it with c.Interceptors.Response.Use(auth.Digest(c, u, p)).
//
// The rejection handler covers the default status check; the fulfilled
// handler covers clients whose ValidateStatus accepts 401.
func Digest(c *client.Client, username, password string) (client.Fulfilled[*client.Response], client.Rejected[*client.Response]) {
	onFulfilled := func(ctx context.Context, resp *client.Response) (*client.Response, error) {
		if resp == nil || resp.Status != http.StatusUnauthorized {
			return resp, nil
		}
		retry, ok, err := digestRetry(resp, username, password)
		if err != nil || !ok {
			return resp, err
		}
		return c.Request(ctx, retry)
	}

	onRejected := func(ctx context.Context, reason error) (*client.Response, error) {
		e, ok := client.AsError(reason)
		if !ok || e.Response == nil || e.Response.Status != http.StatusUnauthorized {
			return nil, reason
		}
		retry, ok, err := digestRetry(e.Response, username, password)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, reason
		}
		return c.Request(ctx, retry)
	}

	return onFulfilled, onRejected
}

// digestRetry builds the follow-up configuration for a challenge, or reports
// false when there is nothing to answer.
func digestRetry(resp *client.Response, username, password string) (*client.Config, bool, error) {
	if resp.Config == nil || resp.Config.Extra[digestRetryKey] == true {
		return nil, false, nil
	}

	wwwAuth := resp.Header("WWW-Authenticate")
	if !strings.HasPrefix(strings.ToLower(wwwAuth), "digest ") {
		return nil, false, nil
	}

	params := ParseWWWAuthenticate(wwwAuth)
	cfg := resp.Config.Clone()

	auth := &DigestAuth{
		Username: username,
		Password: password,
		Realm:    params["realm"],
		Nonce:    params["nonce"],
		URI:      requestURI(cfg),
		Qop:      params["qop"],
		Opaque:   params["opaque"],
		Method:   strings.ToUpper(cfg.Method),
	}

	if auth.Qop != "" {
		auth.Nc = "00000001"
		cnonce, err := GenerateCnonce()
		if err != nil {
			return nil, false, err
		}
		auth.Cnonce = cnonce
		// Prefer "auth" qop
		if strings.Contains(auth.Qop, "auth") {
			auth.Qop = "auth"
		}
	}

	if cfg.Headers == nil {
		cfg.Headers = client.Headers{}
	}
	cfg.Headers.Set("Authorization", auth.BuildAuthorizationHeader())
	if cfg.Extra == nil {
		cfg.Extra = make(map[string]any)
	}
	cfg.Extra[digestRetryKey] = true

	return cfg, true, nil
}

func requestURI(cfg *client.Config) string {
	full := client.BuildURL(cfg.FullURL(), cfg.Params, cfg.ParamsSerializer)
	u, err := url.Parse(full)
	if err != nil {
		return full
	}
	return u.RequestURI()
}

// ParseWWWAuthenticate parses the WWW-Authenticate header from a 401 response
func ParseWWWAuthenticate(header string) map[string]string {
	result := make(map[string]string)

	header = strings.TrimPrefix(header, "Digest ")

	// Parse key="value" pairs
	parts := strings.Split(header, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if idx := strings.Index(part, "="); idx != -1 {
			key := strings.TrimSpace(part[:idx])
			value := strings.TrimSpace(part[idx+1:])
			value = strings.Trim(value, `"`)
			result[key] = value
		}
	}

	return result
}

// ComputeDigestResponse calculates the digest response hash
func (d *DigestAuth) ComputeDigestResponse() string {
	// HA1 = MD5(username:realm:password)
	ha1 := md5Hash(fmt.Sprintf("%s:%s:%s", d.Username, d.Realm, d.Password))

	// HA2 = MD5(method:uri)
	ha2 := md5Hash(fmt.Sprintf("%s:%s", d.Method, d.URI))

	if d.Qop == "auth" || d.Qop == "auth-int" {
		return md5Hash(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, d.Nonce, d.Nc, d.Cnonce, d.Qop, ha2))
	}
	return md5Hash(fmt.Sprintf("%s:%s:%s", ha1, d.Nonce, ha2))
}

// BuildAuthorizationHeader creates the Authorization header value
func (d *DigestAuth) BuildAuthorizationHeader() string {
	response := d.ComputeDigestResponse()

	parts := []string{
		fmt.Sprintf(`username="%s"`, d.Username),
		fmt.Sprintf(`realm="%s"`, d.Realm),
		fmt.Sprintf(`nonce="%s"`, d.Nonce),
		fmt.Sprintf(`uri="%s"`, d.URI),
		fmt.Sprintf(`response="%s"`, response),
	}

	if d.Qop != "" {
		parts = append(parts, fmt.Sprintf(`qop=%s`, d.Qop))
		parts = append(parts, fmt.Sprintf(`nc=%s`, d.Nc))
		parts = append(parts, fmt.Sprintf(`cnonce="%s"`, d.Cnonce))
	}

	if d.Opaque != "" {
		parts = append(parts, fmt.Sprintf(`opaque="%s"`, d.Opaque))
	}

	return "Digest " + strings.Join(parts, ", ")
}

// GenerateCnonce generates a random client nonce
func GenerateCnonce() (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func md5Hash(s string) string {
	h := md5.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/client"
)

// AWSCredentials holds credentials for AWS Signature v4 authentication
type AWSCredentials struct {
	AccessKey string
	SecretKey string
	Region    string
	Service   string
}

var now = time.Now

// AWSSigV4 wraps next so every request is signed with AWS Signature Version 4
// right before it is sent. Signing happens at the adapter because the payload
// hash covers the encoded body.
func AWSSigV4(creds AWSCredentials, next client.Adapter) client.Adapter {
	return client.AdapterFunc(func(ctx context.Context, cfg *client.Config) (*client.Response, error) {
		if err := SignAWSRequest(cfg, creds); err != nil {
			return nil, client.NewError("failed to sign request", client.CodeBadRequest, cfg, nil, err)
		}
		return next.Do(ctx, cfg)
	})
}

// SignAWSRequest signs cfg using AWS Signature Version 4.
// Note: it sets X-Amz-Date, X-Amz-Content-Sha256 and Authorization on
// cfg.Headers. Reader bodies are buffered and replaced with their bytes.
func SignAWSRequest(cfg *client.Config, creds AWSCredentials) error {
	fullURL := client.BuildURL(cfg.FullURL(), cfg.Params, cfg.ParamsSerializer)
	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return err
	}

	payload, err := payloadBytes(cfg)
	if err != nil {
		return err
	}

	t := now().UTC()
	amzDate := t.Format("20060102T150405Z")
	dateStamp := t.Format("20060102")

	host := parsedURL.Host

	signedHeaders := "host;x-amz-date"
	canonicalHeaders := fmt.Sprintf("host:%s\nx-amz-date:%s\n", host, amzDate)

	payloadHash := sha256Hash(string(payload))

	canonicalURI := parsedURL.Path
	if canonicalURI == "" {
		canonicalURI = "/"
	}

	canonicalQueryString := createCanonicalQueryString(parsedURL.Query())

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = "GET"
	}

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI,
		canonicalQueryString,
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request",
		dateStamp, creds.Region, creds.Service)

	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		sha256Hash(canonicalRequest),
	}, "\n")

	signingKey := getSignatureKey(creds.SecretKey, dateStamp, creds.Region, creds.Service)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	if cfg.Headers == nil {
		cfg.Headers = client.Headers{}
	}
	cfg.Headers.Set("X-Amz-Date", amzDate)
	cfg.Headers.Set("X-Amz-Content-Sha256", payloadHash)
	cfg.Headers.Set("Authorization", fmt.Sprintf("AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		creds.AccessKey, credentialScope, signedHeaders, signature))

	return nil
}

func payloadBytes(cfg *client.Config) ([]byte, error) {
	switch v := cfg.Data.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case url.Values:
		return []byte(v.Encode()), nil
	case client.BodyEncoder:
		return nil, fmt.Errorf("cannot sign streamed multipart body")
	case io.Reader:
		b, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		cfg.Data = bytes.NewReader(b)
		return b, nil
	}
	return json.Marshal(cfg.Data)
}

func createCanonicalQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	var keys []string
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		vals := values[k]
		sort.Strings(vals)
		for _, v := range vals {
			pairs = append(pairs, fmt.Sprintf("%s=%s",
				url.QueryEscape(k),
				url.QueryEscape(v)))
		}
	}

	return strings.Join(pairs, "&")
}

func sha256Hash(s string) string {
	h := sha256.New()
	h.Write([]byte(s))
	return hex.EncodeToString(h.Sum(nil))
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func getSignatureKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, "aws4_request")
}

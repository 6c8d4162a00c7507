// Package auth provides interceptors and adapter wrappers that authenticate
// hitclient requests.
//
// Header and query based schemes (Basic, Bearer, APIKey, APIKeyQuery, OAuth2)
// are request interceptors. AWS Signature V4 needs the encoded body and wraps
// the adapter instead. Digest auth answers a 401 challenge from the response
// side by re-issuing the request once.
//
// Install maps a scheme name such as "basic" or "aws" and its positional
// parameters onto the right interceptors.
package auth

// Package env expands {{variable}} placeholders in outgoing requests.
//
// A Resolver looks names up in, in order:
//   - values captured from earlier responses
//   - user variables (config file, --var, .env files)
//   - the process environment, written {{$NAME}}
//   - built-in functions such as {{uuid()}} or {{date("2006-01")}}
//
// Resolver.Interceptor expands a request's URL, params, headers and
// string body; Resolver.Capture stores values from responses for the
// requests that follow.
package env

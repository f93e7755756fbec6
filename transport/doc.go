// Package transport keeps the process-wide default request headers and applies them to
// outgoing API calls through an [http.RoundTripper].
package transport

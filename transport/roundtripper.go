package transport

import "net/http"

// RoundTripper attaches [DefaultHeaders] to each request before delegating to Base.
type RoundTripper struct {
	Headers *DefaultHeaders
	Base    http.RoundTripper
}

// NewClient returns an [http.Client] whose requests carry headers.
func NewClient(headers *DefaultHeaders, base http.RoundTripper) *http.Client {
	return &http.Client{Transport: &RoundTripper{Headers: headers, Base: base}}
}

func (t *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Headers == nil || t.Headers.Len() == 0 {
		return base.RoundTrip(req)
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	t.Headers.Apply(clone)
	return base.RoundTrip(clone)
}

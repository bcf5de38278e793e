package client

import (
	"net/http"

	"pilot-api/internal/observability/requestid"
)

// RequestIDTransport is an http.RoundTripper that automatically propagates the
// X-Request-Id header from context to outbound HTTP requests, giving
// end-to-end correlation across service boundaries.
type RequestIDTransport struct {
	base http.RoundTripper
}

// NewRequestIDTransport creates a new RequestIDTransport wrapping the base transport.
// If base is nil, defaults to http.DefaultTransport.
func NewRequestIDTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RequestIDTransport{base: base}
}

// RoundTrip implements http.RoundTripper. It extracts request_id from the
// request context and sets the X-Request-Id header, without overwriting a
// header the caller set explicitly.
func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("X-Request-Id") != "" {
		return t.base.RoundTrip(req)
	}

	reqID := requestid.GetRequestID(req.Context())
	if reqID == "" {
		// No request_id in context; acceptable for background jobs
		return t.base.RoundTrip(req)
	}

	// Clone to avoid mutating a shared header map
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("X-Request-Id", reqID)

	return t.base.RoundTrip(clonedReq)
}

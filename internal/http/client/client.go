package client

import (
	"net/http"
	"time"
)

// NewInternalHTTPClient creates an http.Client with sane defaults for internal service calls.
//
// Includes:
// - Request ID propagation via RequestIDTransport
// - Sensible timeouts (no infinite waits)
// - Connection pooling via DefaultTransport
func NewInternalHTTPClient() *http.Client {
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	transport := NewRequestIDTransport(baseTransport)

	return &http.Client{
		Transport: transport,
		Timeout:   30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// NewExternalHTTPClient creates an http.Client with conservative defaults for
// external API calls. Use this for customer webhook endpoints and third-party
// services, which can be slow.
func NewExternalHTTPClient() *http.Client {
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	transport := NewRequestIDTransport(baseTransport)

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

// NewCustomHTTPClient creates an http.Client with a custom timeout,
// keeping automatic request ID propagation.
func NewCustomHTTPClient(timeout time.Duration) *http.Client {
	baseTransport := http.DefaultTransport.(*http.Transport).Clone()
	transport := NewRequestIDTransport(baseTransport)

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}

package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pilot-api/internal/http/client"
	"pilot-api/internal/observability/requestid"
)

func TestRequestIDTransport_PropagatesHeader(t *testing.T) {
	const testRequestID = "test-req-123"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID := r.Header.Get("X-Request-Id")
		if gotRequestID != testRequestID {
			t.Errorf("expected X-Request-Id %q, got %q", testRequestID, gotRequestID)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	transport := client.NewRequestIDTransport(nil)
	httpClient := &http.Client{Transport: transport}

	ctx := requestid.SetRequestID(context.Background(), testRequestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestRequestIDTransport_PreservesExistingHeader(t *testing.T) {
	const explicitRequestID = "explicit-req-456"
	const contextRequestID = "context-req-789"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID := r.Header.Get("X-Request-Id")
		if gotRequestID != explicitRequestID {
			t.Errorf("expected X-Request-Id %q (explicit), got %q", explicitRequestID, gotRequestID)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	transport := client.NewRequestIDTransport(nil)
	httpClient := &http.Client{Transport: transport}

	ctx := requestid.SetRequestID(context.Background(), contextRequestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	// Explicit header takes precedence over context
	req.Header.Set("X-Request-Id", explicitRequestID)

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestRequestIDTransport_NoHeaderWithoutContext(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Request-Id"); got != "" {
			t.Errorf("expected no X-Request-Id header, got %q", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	transport := client.NewRequestIDTransport(nil)
	httpClient := &http.Client{Transport: transport}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
}

package requestid_test

import (
	"context"
	"strings"
	"testing"

	"pilot-api/internal/observability/requestid"

	"github.com/stretchr/testify/assert"
)

func TestNewRequestID(t *testing.T) {
	id := requestid.NewRequestID()

	assert.True(t, strings.HasPrefix(id, "req_"), "request ID should have req_ prefix: %s", id)
	assert.Greater(t, len(id), 10)

	// Two IDs generated back to back must differ
	other := requestid.NewRequestID()
	assert.NotEqual(t, id, other)
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, requestid.GetRequestID(ctx), "empty context should have no request ID")

	ctx = requestid.SetRequestID(ctx, "req_123_abc")
	assert.Equal(t, "req_123_abc", requestid.GetRequestID(ctx))
}

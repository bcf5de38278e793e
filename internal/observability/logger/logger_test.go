package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		level       string
		wantErr     bool
	}{
		{
			name:        "valid logger",
			serviceName: "pilot-api",
			level:       "info",
			wantErr:     false,
		},
		{
			name:        "empty service name rejected",
			serviceName: "",
			level:       "info",
			wantErr:     true,
		},
		{
			name:        "unknown level defaults to info",
			serviceName: "pilot-api",
			level:       "nonsense",
			wantErr:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.serviceName, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestSanitizeFields(t *testing.T) {
	fields := []Field{
		zap.String("user_id", "u_123"),
		zap.String("password", "hunter2"),
		zap.String("API_KEY", "pk_live_secret"),
		zap.String("email", "someone@example.com"),
		zap.Int("status", 200),
	}

	sanitized := sanitizeFields(fields)
	require.Len(t, sanitized, len(fields))

	byKey := map[string]Field{}
	for _, f := range sanitized {
		byKey[f.Key] = f
	}

	assert.Equal(t, "u_123", byKey["user_id"].String)
	assert.Equal(t, "[REDACTED]", byKey["password"].String)
	assert.Equal(t, "[REDACTED]", byKey["API_KEY"].String, "sanitization must be case-insensitive")
	assert.Equal(t, "[REDACTED]", byKey["email"].String)
	assert.Equal(t, int64(200), byKey["status"].Integer)
}

func TestContextValues(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetAccountIDFromContext(ctx))
	assert.Empty(t, GetUserIDFromContext(ctx))

	ctx = SetAccountIDInContext(ctx, "acc_1")
	ctx = SetUserIDInContext(ctx, "u_1")
	ctx = SetRequestIDInContext(ctx, "req_1")

	assert.Equal(t, "acc_1", GetAccountIDFromContext(ctx))
	assert.Equal(t, "u_1", GetUserIDFromContext(ctx))
	assert.Equal(t, "req_1", GetRequestIDFromContext(ctx))
}

func TestGetLoggerFallback(t *testing.T) {
	// Context without a logger must still return a usable instance
	log := GetLogger(context.Background())
	require.NotNil(t, log)

	log2, err := New("pilot-api", "debug")
	require.NoError(t, err)

	ctx := SetLoggerInContext(context.Background(), log2)
	assert.Same(t, log2, GetLogger(ctx))
}

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceTokenStore(t *testing.T) {
	store := NewServiceTokenStore()
	store.RegisterToken("widget-token-abc", "widget-backend")
	store.RegisterToken("scheduler-token-def", "scheduler")
	store.RegisterToken("", "should-not-register")

	t.Run("valid token resolves service name", func(t *testing.T) {
		name, ok := store.ValidateToken("widget-token-abc")
		assert.True(t, ok)
		assert.Equal(t, "widget-backend", name)
	})

	t.Run("unknown token rejected", func(t *testing.T) {
		_, ok := store.ValidateToken("bogus")
		assert.False(t, ok)
	})

	t.Run("empty token never registered", func(t *testing.T) {
		_, ok := store.ValidateToken("")
		assert.False(t, ok)
	})
}

func TestIsJWTToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"jwt shape", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", true},
		{"service token", "widget-token-abc", false},
		{"jwt prefix but wrong dots", "eyJhbGciOiJIUzI1NiJ9", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isJWTToken(tt.token))
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "***", maskToken("short"))
	assert.Equal(t, "eyJhbGci...", maskToken("eyJhbGciOiJIUzI1NiJ9"))
}

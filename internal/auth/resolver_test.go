package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *KeyResolver {
	t.Helper()

	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))

	resolver := NewKeyResolver([]string{testIssuer}, []string{testAudience})
	resolver.RegisterValidator(testIssuer, NewHS256Validator(keyStore, testIssuer, 60*time.Second))
	return resolver
}

func TestKeyResolver_ValidToken(t *testing.T) {
	resolver := newTestResolver(t)

	claims := &CustomClaims{ActorID: "user-1"}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := resolver.Resolve(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", result.ActorID)
}

func TestKeyResolver_DisallowedIssuer(t *testing.T) {
	resolver := newTestResolver(t)

	// Sign with a known secret but an issuer outside the allow-list
	claims := &CustomClaims{
		ActorID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "rogue-issuer",
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	result, err := resolver.Resolve(context.Background(), tokenString)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidIssuer, authErr.Reason)
}

func TestKeyResolver_WrongAudience(t *testing.T) {
	resolver := newTestResolver(t)

	claims := &CustomClaims{
		ActorID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{"some-other-service"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	result, err := resolver.Resolve(context.Background(), tokenString)

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidAudience, authErr.Reason)
}

func TestKeyResolver_MalformedToken(t *testing.T) {
	resolver := newTestResolver(t)

	result, err := resolver.Resolve(context.Background(), "not-a-jwt")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestKeyResolver_DefaultKid(t *testing.T) {
	resolver := newTestResolver(t)

	// createTestToken does not set a kid header; the resolver falls back to "v1"
	claims := &CustomClaims{ActorID: "user-1"}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := resolver.Resolve(context.Background(), token)

	require.NoError(t, err)
	assert.Equal(t, "user-1", result.ActorID)
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "test-secret-key-must-be-at-least-32-chars-long-for-hmac"
	testIssuer   = "pilot-dashboard"
	testAudience = "pilot-api"
)

// Helper function to create a valid JWT token for testing
func createTestToken(secret string, claims *CustomClaims, exp time.Time) string {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Audience:  jwt.ClaimStrings{testAudience},
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func TestHS256Validator_ValidToken(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{ActorID: "user-67890"}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.ActorID)
	assert.Equal(t, testIssuer, result.Issuer)
}

func TestHS256Validator_InvalidSignature(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	wrongSecret := "wrong-secret-key-must-be-at-least-32-chars-long"
	claims := &CustomClaims{ActorID: "user-67890"}
	token := createTestToken(wrongSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureInvalidSignature, authErr.Reason)
}

func TestHS256Validator_ExpiredToken(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 5*time.Second)

	claims := &CustomClaims{ActorID: "user-67890"}
	token := createTestToken(testSecret, claims, time.Now().Add(-10*time.Second))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)

	authErr, ok := IsAuthError(err)
	require.True(t, ok)
	assert.Equal(t, AuthFailureTokenExpired, authErr.Reason)
}

func TestHS256Validator_ExpiredTokenWithinClockSkew(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{ActorID: "user-67890"}
	token := createTestToken(testSecret, claims, time.Now().Add(-30*time.Second))

	result, err := validator.Validate(token, "v1")

	require.NoError(t, err)
	assert.Equal(t, "user-67890", result.ActorID)
}

func TestHS256Validator_MissingActorID(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v1")

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestHS256Validator_UnknownKid(t *testing.T) {
	keyStore := NewKeyStore()
	keyStore.LoadHS256Key(testIssuer, "v1", []byte(testSecret))
	validator := NewHS256Validator(keyStore, testIssuer, 60*time.Second)

	claims := &CustomClaims{ActorID: "user-67890"}
	token := createTestToken(testSecret, claims, time.Now().Add(1*time.Hour))

	result, err := validator.Validate(token, "v2")

	require.Error(t, err)
	assert.Nil(t, result)
}

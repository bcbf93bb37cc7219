package services_test

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/models"
	"littlegrow/internal/services"
	"littlegrow/pkg/apperrors"
)

const testJWTSecret = "test_jwt_secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(testJWTSecret)

	// Test valid customer token
	token := signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id":  "user-123",
		"username": "testuser",
		"email":    "test@example.com",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	identity, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, models.Identity{UserID: "user-123", Username: "testuser", Email: "test@example.com", Role: models.RoleCustomer}, identity)

	// Test admin role
	token = signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id": "admin-1",
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	identity, err = authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.True(t, identity.IsAdmin())

	// Test malformed token
	_, err = authService.ValidateToken("invalid.token.string")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	// Test wrong secret
	_, err = authService.ValidateToken(signToken(t, "other", jwt.MapClaims{"user_id": "user-123"}))
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	// Test expired token
	expired := signToken(t, testJWTSecret, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	_, err = authService.ValidateToken(expired)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test token without a subject
	_, err = authService.ValidateToken(signToken(t, testJWTSecret, jwt.MapClaims{"username": "ghost"}))
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}

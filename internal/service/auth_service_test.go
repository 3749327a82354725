package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classreg-api/internal/models"
)

func signTestToken(t *testing.T, secret string, claims *models.JWTClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService("test-secret")
	signed := signTestToken(t, "test-secret", &models.JWTClaims{
		SubjectID: "student-1",
		Role:      models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.SubjectID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	svc := NewAuthService("test-secret")
	signed := signTestToken(t, "other-secret", &models.JWTClaims{SubjectID: "student-1", Role: models.RoleStudent})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := NewAuthService("test-secret")
	signed := signTestToken(t, "test-secret", &models.JWTClaims{
		SubjectID: "student-1",
		Role:      models.RoleStudent,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := svc.ValidateToken(signed)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService("test-secret")
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sonvt1710/graylog2-server/internal/models"
)

func testUser() *models.User {
	user := &models.User{Username: "jane", IsRoot: true}
	user.ID = "user-123"
	return user
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.EqualError(t, err, "jwt: secret must be provided")

	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)
	require.Equal(t, DefaultAccessTokenTTL, svc.TTL())
}

func TestIssueAndValidate(t *testing.T) {
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "shares",
		AccessTokenTTL: time.Hour,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, current.Add(time.Hour), token.ExpiresAt)

	claims, err := svc.Validate(token.Token)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "jane", claims.Username)
	require.True(t, claims.Root)
	require.Equal(t, "grn::::user:user-123", claims.Subject)
	require.Equal(t, "shares", claims.Issuer)
	require.NotEmpty(t, claims.ID)
	require.True(t, claims.IssuedAt.Time.Equal(current))
}

func TestIssueRequiresUser(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	_, err = svc.Issue(nil)
	require.Error(t, err)
	_, err = svc.Issue(&models.User{})
	require.Error(t, err)
}

func TestValidateInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "issuer-secret", Clock: now})
	require.NoError(t, err)
	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "other-secret", Clock: now})
	require.NoError(t, err)

	_, err = verifier.Validate(token.Token)
	require.True(t, errors.Is(err, jwt.ErrTokenSignatureInvalid))

	_, err = verifier.Validate("")
	require.Error(t, err)
}

func TestValidateWrongIssuer(t *testing.T) {
	issuer, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "a"})
	require.NoError(t, err)
	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "secret", Issuer: "b"})
	require.NoError(t, err)
	_, err = verifier.Validate(token.Token)
	require.EqualError(t, err, "jwt: invalid issuer")
}

func TestValidateExpired(t *testing.T) {
	current := time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC)

	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          func() time.Time { return current },
	})
	require.NoError(t, err)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.Validate(token.Token)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

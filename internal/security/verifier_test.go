package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerifyBearer_Valid(t *testing.T) {
	v := NewHS256Verifier("secret", "chat-platform", "12345")
	raw := sign(t, "secret", jwt.RegisteredClaims{
		Issuer:    "chat-platform",
		Audience:  jwt.ClaimStrings{"12345"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	claims, err := v.VerifyBearer(raw)
	require.NoError(t, err)
	require.Equal(t, "chat-platform", claims.Issuer)
}

func TestVerifyBearer_WrongSecret(t *testing.T) {
	v := NewHS256Verifier("secret", "", "")
	raw := sign(t, "other-secret", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.VerifyBearer(raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyBearer_WrongIssuer(t *testing.T) {
	v := NewHS256Verifier("secret", "chat-platform", "")
	raw := sign(t, "secret", jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.VerifyBearer(raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyBearer_WrongAudience(t *testing.T) {
	v := NewHS256Verifier("secret", "", "12345")
	raw := sign(t, "secret", jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{"99999"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.VerifyBearer(raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyBearer_Expired(t *testing.T) {
	v := NewHS256Verifier("secret", "", "")
	raw := sign(t, "secret", jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	_, err := v.VerifyBearer(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyBearer_Garbage(t *testing.T) {
	v := NewHS256Verifier("secret", "", "")
	_, err := v.VerifyBearer("not-a-token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

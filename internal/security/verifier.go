package security

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type TokenClaims struct {
	Issuer   string
	Audience []string
	Subject  string
}

// BearerVerifier checks the bearer token the chat platform attaches to
// inbound event deliveries.
type BearerVerifier interface {
	VerifyBearer(token string) (TokenClaims, error)
}

// HS256Verifier verifies shared-secret signed delivery tokens, optionally
// pinning issuer and audience.
type HS256Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewHS256Verifier(secret, issuer, audience string) *HS256Verifier {
	return &HS256Verifier{secret: []byte(secret), issuer: issuer, audience: audience}
}

func (v *HS256Verifier) VerifyBearer(token string) (TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrTokenInvalid
		}
		return v.secret, nil
	}, opts...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return TokenClaims{}, ErrTokenInvalid
	}

	return TokenClaims{
		Issuer:   claims.Issuer,
		Audience: claims.Audience,
		Subject:  claims.Subject,
	}, nil
}

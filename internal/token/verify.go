package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type verifyOptions struct {
	now func() time.Time
}

// VerifyOption customises Verify.
type VerifyOption func(*verifyOptions)

// WithClock overrides the clock used for exp/nbf checks.
func WithClock(now func() time.Time) VerifyOption {
	return func(o *verifyOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// Verify checks a token produced by Issuer against creds and returns its
// claims. Only HS256 is accepted, the issuer must be the API key and the token
// must carry an expiry.
func Verify(raw string, creds Credentials, opts ...VerifyOption) (Claims, error) {
	if err := creds.Validate(); err != nil {
		return Claims{}, err
	}

	o := verifyOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(*jwt.Token) (any, error) {
			return []byte(creds.APISecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(creds.APIKey),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(o.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

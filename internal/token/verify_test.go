package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_AcceptsIssuedToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, err := newTestIssuer(t, testCreds, now).Issue("room-a", "alice")
	require.NoError(t, err)

	claims, err := Verify(tok.JWT, testCreds, WithClock(func() time.Time { return now.Add(time.Minute) }))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Identity())
	assert.Equal(t, NewGrant("room-a"), claims.Video)
}

func TestVerify_Rejects(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tok, err := newTestIssuer(t, testCreds, now).Issue("room-a", "alice")
	require.NoError(t, err)

	clock := func(d time.Duration) VerifyOption {
		return WithClock(func() time.Time { return now.Add(d) })
	}

	t.Run("expired", func(t *testing.T) {
		_, err := Verify(tok.JWT, testCreds, clock(TTL+time.Second))
		assert.True(t, errors.Is(err, ErrInvalidToken), "err=%v", err)
		assert.True(t, errors.Is(err, jwt.ErrTokenExpired), "err=%v", err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := Credentials{APIKey: testCreds.APIKey, APISecret: "another-secret"}
		_, err := Verify(tok.JWT, other, clock(0))
		assert.True(t, errors.Is(err, ErrInvalidToken), "err=%v", err)
	})

	t.Run("wrong api key", func(t *testing.T) {
		other := Credentials{APIKey: "someone-else", APISecret: testCreds.APISecret}
		_, err := Verify(tok.JWT, other, clock(0))
		assert.True(t, errors.Is(err, ErrInvalidToken), "err=%v", err)
	})

	t.Run("alg none", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    testCreds.APIKey,
				Subject:   "mallory",
				ExpiresAt: jwt.NewNumericDate(now.Add(TTL)),
			},
			Video: NewGrant("room-a"),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = Verify(unsigned, testCreds, clock(0))
		assert.True(t, errors.Is(err, ErrInvalidToken), "err=%v", err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Verify("not.a.jwt", testCreds, clock(0))
		assert.True(t, errors.Is(err, ErrInvalidToken), "err=%v", err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := Verify(tok.JWT, Credentials{}, clock(0))
		assert.True(t, errors.Is(err, ErrMissingCredentials), "err=%v", err)
	})
}

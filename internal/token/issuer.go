package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL is the lifetime of every issued token. It is not configurable per
// request.
const TTL = 10 * time.Minute

// SignedToken is an issued token together with the values that went into it.
type SignedToken struct {
	JWT       string
	ID        string
	Identity  string
	Room      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs room-join tokens with a fixed set of credentials.
//
// An Issuer holds no mutable state and is safe for concurrent use.
type Issuer struct {
	creds Credentials
	now   func() time.Time
	newID func() string
}

func NewIssuer(creds Credentials) *Issuer {
	return &Issuer{
		creds: creds,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Issue returns a signed token allowing identity to join room.
//
// Callers are expected to pass non-empty names; no further validation is done
// on either value. Issue fails with an error matching ErrSigning when the
// credentials are missing or signing fails.
func (i *Issuer) Issue(room, identity string) (SignedToken, error) {
	if err := i.creds.Validate(); err != nil {
		return SignedToken{}, err
	}

	// Read the clock once so exp-iat is exactly TTL.
	issuedAt := jwt.NewNumericDate(i.now())
	expiresAt := jwt.NewNumericDate(issuedAt.Add(TTL))

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.creds.APIKey,
			Subject:   identity,
			ID:        i.newID(),
			IssuedAt:  issuedAt,
			NotBefore: issuedAt,
			ExpiresAt: expiresAt,
		},
		Name:  identity,
		Video: NewGrant(room),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(i.creds.APISecret))
	if err != nil {
		return SignedToken{}, &signingError{reason: "sign jwt", err: err}
	}

	return SignedToken{
		JWT:       signed,
		ID:        claims.ID,
		Identity:  identity,
		Room:      room,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

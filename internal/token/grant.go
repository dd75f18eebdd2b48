package token

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Grant is the LiveKit video grant carried in the "video" claim.
//
// The server only ever issues one shape of grant (see NewGrant): join a single
// room and update the participant's own metadata. Room admin, recording and
// publish-only modes are never granted.
type Grant struct {
	RoomJoin             bool   `json:"roomJoin"`
	Room                 string `json:"room"`
	CanUpdateOwnMetadata bool   `json:"canUpdateOwnMetadata"`
}

// NewGrant returns the fixed grant for room.
func NewGrant(room string) Grant {
	return Grant{
		RoomJoin:             true,
		Room:                 room,
		CanUpdateOwnMetadata: true,
	}
}

// Claims is the JWT payload understood by LiveKit's token verifier.
//
// iss carries the API key (LiveKit looks up the secret by it) and sub carries
// the participant identity.
type Claims struct {
	jwt.RegisteredClaims

	Name  string `json:"name,omitempty"`
	Video Grant  `json:"video"`
}

// Identity returns the participant identity (the sub claim).
func (c Claims) Identity() string {
	return c.Subject
}

// Credentials are the LiveKit API key pair used to sign tokens.
type Credentials struct {
	APIKey    string
	APISecret string
}

var (
	// ErrSigning is the root of every token issuance failure.
	ErrSigning = errors.New("token signing failed")

	// ErrMissingCredentials is returned when the API key or secret is unset.
	ErrMissingCredentials = wrapSigning("LIVEKIT_API_KEY and LIVEKIT_API_SECRET must be set")
)

// Validate reports whether c can sign tokens.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APISecret) == "" {
		return ErrMissingCredentials
	}
	return nil
}

type signingError struct {
	reason string
	err    error
}

func wrapSigning(reason string) error {
	return &signingError{reason: reason}
}

func (e *signingError) Error() string {
	if e.err != nil {
		return ErrSigning.Error() + ": " + e.reason + ": " + e.err.Error()
	}
	return ErrSigning.Error() + ": " + e.reason
}

func (e *signingError) Unwrap() []error {
	if e.err != nil {
		return []error{ErrSigning, e.err}
	}
	return []error{ErrSigning}
}

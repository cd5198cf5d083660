// Package tokeninfo reads the registered claims of an access token without
// verifying its signature.
//
// The client never holds the signing key. It only needs the expiry to decide
// whether to refresh a token before sending it, so the token is decoded with
// jwt.Parser.ParseUnverified. Nothing read here may be used for an
// authorization decision.
package tokeninfo

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNotJWT is returned for opaque tokens that are not compact JWTs.
	ErrNotJWT = errors.New("tokeninfo: token is not a JWT")
	// ErrNoExpiry is returned when the token carries no exp claim.
	ErrNoExpiry = errors.New("tokeninfo: token has no expiry")
)

// Info holds the claims relevant to refresh scheduling.
type Info struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

var parser = jwt.NewParser()

// Inspect decodes token and returns its registered claims.
func Inspect(token string) (Info, error) {
	if token == "" {
		return Info{}, ErrNotJWT
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Info{}, errors.Join(ErrNotJWT, err)
	}

	info := Info{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt == nil {
		return info, ErrNoExpiry
	}
	info.ExpiresAt = claims.ExpiresAt.Time
	return info, nil
}

// ExpiresWithin reports whether token expires before now+skew. Opaque tokens
// and tokens without an exp claim never report true: their lifetime is only
// learned from a 401.
func ExpiresWithin(token string, skew time.Duration, now time.Time) bool {
	info, err := Inspect(token)
	if err != nil {
		return false
	}
	return !info.ExpiresAt.After(now.Add(skew))
}

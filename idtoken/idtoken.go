package idtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned for tokens that do not parse as JWTs.
var ErrNotJWT = errors.New("token is not a parseable jwt")

// ErrNoExpiry is returned for JWTs lacking an exp claim.
var ErrNoExpiry = errors.New("token has no expiry claim")

// Claims are the scheduling-relevant fields of an identity token.
type Claims struct {
	Subject string
	Email   string
	Expiry  time.Time
}

type peekClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

var peekParser = jwt.NewParser()

// Peek reads claims from a bearer token without verifying its signature.
func Peek(token string) (*Claims, error) {
	var claims peekClaims
	if _, _, err := peekParser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}

	return &Claims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Expiry:  claims.ExpiresAt.Time,
	}, nil
}

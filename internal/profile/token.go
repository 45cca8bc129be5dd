package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields read from an access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseAccessToken reads the claims of a backend-issued access token. With a
// secret the HS256 signature and expiry are verified; without one the token
// is only decoded and the caller must confirm it with the backend.
func ParseAccessToken(token, secret string, now time.Time) (*Claims, error) {
	claims := &Claims{}

	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
		if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
			return nil, fmt.Errorf("%w: token expired", ErrNotAuthenticated)
		}
	} else {
		_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(func() time.Time { return now }),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
		}
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, errors.New("token has no subject"))
	}
	return claims, nil
}

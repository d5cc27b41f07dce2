// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the identity provider's access-token claims. Only sub is
// required.
type Claims struct {
	Username string `json:"preferred_username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller.
type Identity struct {
	UserID   uuid.UUID
	Subject  string
	Username string
	Email    string
}

// ParseToken validates an HS256 token signed with secret.
func ParseToken(tokenString string, secret []byte) (Identity, error) {
	if len(secret) == 0 {
		return Identity{}, fmt.Errorf("%w: bearer tokens are not accepted without JWT_SECRET", ErrInvalidToken)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return Identity{
		UserID:   UserIDForSubject(claims.Subject),
		Subject:  claims.Subject,
		Username: username,
		Email:    claims.Email,
	}, nil
}

// UserIDForSubject keeps uuid subjects as they are and derives a stable
// name-based uuid for anything else.
func UserIDForSubject(subject string) uuid.UUID {
	if id, err := uuid.Parse(subject); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("socialpulse:subject:"+subject))
}

// IssueToken signs a token the way the identity provider does. Used for
// local development and tests.
func IssueToken(secret []byte, subject, username string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

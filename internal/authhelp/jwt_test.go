// SPDX-License-Identifier: AGPL-3.0-only
package authhelp

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-jwt-secret")

func TestParseTokenWithUUIDSubject(t *testing.T) {
	sub := uuid.New()
	token, err := IssueToken(testSecret, sub.String(), "maria", time.Hour, time.Now())
	require.NoError(t, err)

	id, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, sub, id.UserID)
	assert.Equal(t, "maria", id.Username)
}

func TestParseTokenDerivesStableUserID(t *testing.T) {
	token, err := IssueToken(testSecret, "auth0|12345", "", time.Hour, time.Now())
	require.NoError(t, err)

	id, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, UserIDForSubject("auth0|12345"), id.UserID)
	assert.NotEqual(t, UserIDForSubject("auth0|99999"), id.UserID)
	assert.Equal(t, "auth0|12345", id.Username)
}

func TestParseTokenRejects(t *testing.T) {
	now := time.Now()
	expired, err := IssueToken(testSecret, "u1", "", time.Hour, now.Add(-2*time.Hour))
	require.NoError(t, err)
	wrongKey, err := IssueToken([]byte("other"), "u1", "", time.Hour, now)
	require.NoError(t, err)
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "u1"}).SignedString(testSecret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":    expired,
		"wrong key":  wrongKey,
		"no subject": noSubject,
		"other alg":  hs512,
		"garbage":    "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseToken(token, testSecret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestParseTokenWithoutSecret(t *testing.T) {
	token, err := IssueToken(testSecret, "u1", "", time.Hour, time.Now())
	require.NoError(t, err)

	_, err = ParseToken(token, nil)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

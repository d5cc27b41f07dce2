// SPDX-License-Identifier: AGPL-3.0-only
package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCipherRoundTrip(t *testing.T) {
	c, err := NewTokenCipher("a passphrase that is not 32 bytes")
	require.NoError(t, err)

	sealed, err := c.Seal("EAAB-access-token")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "EAAB")

	opened, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "EAAB-access-token", opened)
}

func TestTokenCipherUsesFreshNonce(t *testing.T) {
	c, err := NewTokenCipher("secret")
	require.NoError(t, err)

	a, err := c.Seal("same")
	require.NoError(t, err)
	b, err := c.Seal("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestTokenCipherRejectsForeignKey(t *testing.T) {
	c1, err := NewTokenCipher("one")
	require.NoError(t, err)
	c2, err := NewTokenCipher("two")
	require.NoError(t, err)

	sealed, err := c1.Seal("token")
	require.NoError(t, err)

	_, err = c2.Open(sealed)
	assert.Error(t, err)
}

func TestTokenCipherMalformedInput(t *testing.T) {
	c, err := NewTokenCipher("secret")
	require.NoError(t, err)

	_, err = c.Open("%%%not-base64")
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = c.Open("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestNewTokenCipherRequiresSecret(t *testing.T) {
	_, err := NewTokenCipher("")
	assert.Error(t, err)

	c, err := NewTokenCipher("secret")
	require.NoError(t, err)
	_, err = c.Seal("")
	assert.Error(t, err)
}

package secret

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcrypt_HashAndCompare(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("password1")
	require.NoError(t, err)
	assert.NotEqual(t, "password1", hash)

	ok, err := h.Compare(hash, "password1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare(hash, "password2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBcrypt_SaltedPerHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBcrypt_LongSecretsDifferingAfter72Bytes(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)
	prefix := strings.Repeat("x", 100)

	hash, err := h.Hash(prefix + "a")
	require.NoError(t, err)

	ok, err := h.Compare(hash, prefix+"b")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.Compare(hash, prefix+"a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcrypt_MalformedHash(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	_, err := h.Compare("not-a-bcrypt-hash", "secret")
	assert.Error(t, err)
}

func TestNewBcrypt_InvalidCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCost, NewBcrypt(0).cost)
	assert.Equal(t, DefaultCost, NewBcrypt(bcrypt.MaxCost+1).cost)
}

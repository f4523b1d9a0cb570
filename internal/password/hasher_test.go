package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher()

	hash, err := h.Hash("Abcdef1")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, "Abcdef1", hash)

	assert.True(t, h.Verify("Abcdef1", hash))
	assert.False(t, h.Verify("abcdef1", hash))
	assert.False(t, h.Verify("", hash))
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewHasher()

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestHasher_EmptyStoredHash(t *testing.T) {
	h := NewHasher()

	assert.False(t, h.Verify("anything", ""))
	assert.False(t, h.Verify("", ""))
}

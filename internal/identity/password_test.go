package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost) // low cost for fast tests

	hash, err := hasher.Hash("correct horse battery")

	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)
	assert.True(t, hasher.Verify(hash, "correct horse battery"))
	assert.False(t, hasher.Verify(hash, "wrong password"))
}

func TestVerifyOldCostHash(t *testing.T) {
	// Hashes stored with a different cost must keep verifying.
	old, err := bcrypt.GenerateFromPassword([]byte("legacy secret"), bcrypt.MinCost)
	require.NoError(t, err)

	hasher := NewHasher(DefaultBcryptCost)

	assert.True(t, hasher.Verify(string(old), "legacy secret"))
	assert.True(t, hasher.NeedsRehash(string(old)))
}

func TestNewHasherDefaultCost(t *testing.T) {
	hasher := NewHasher(0)

	assert.Equal(t, DefaultBcryptCost, hasher.cost)
}

func TestAvatarHash(t *testing.T) {
	// MD5 of the lowercased email bytes.
	assert.Equal(t, AvatarHash("Robin@Gridt.ORG"), AvatarHash("robin@gridt.org"))
	assert.Equal(t, "0f1d8086585c2580e6f2231886ba5e38", AvatarHash("robin@gridt.org"))
	assert.Len(t, AvatarHash("anything"), 32)
}

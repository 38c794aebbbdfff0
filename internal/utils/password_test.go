package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret99", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret99", hash)

	assert.True(t, VerifyPassword(hash, "s3cret99"))
	assert.False(t, VerifyPassword(hash, "s3cret98"))
	assert.False(t, VerifyPassword("", "s3cret99"))
}

func TestHashPasswordFallsBackOnInvalidCost(t *testing.T) {
	for _, cost := range []int{0, -1, bcrypt.MaxCost + 1} {
		hash, err := HashPassword("s3cret99", cost)
		require.NoError(t, err)

		got, err := bcrypt.Cost([]byte(hash))
		require.NoError(t, err)
		assert.Equal(t, DefaultBcryptCost, got)
	}
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTPLengthAndAlphabet(t *testing.T) {
	for _, length := range []int{ResetOTPLength, SessionOTPLength, 1, 32} {
		otp, err := NewOTP(length)
		require.NoError(t, err)
		require.Len(t, otp, length)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q in otp %q", r, otp)
		}
	}
}

func TestNewOTPZeroLength(t *testing.T) {
	otp, err := NewOTP(0)
	require.NoError(t, err)
	assert.Empty(t, otp)
}

func TestNewOTPDoesNotRepeat(t *testing.T) {
	// With 20 digits a collision across a handful of draws means the
	// generator is broken, not unlucky.
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := NewOTP(SessionOTPLength)
		require.NoError(t, err)
		assert.False(t, seen[otp], "duplicate otp %q", otp)
		seen[otp] = true
	}
}

package utils

import (
	"crypto/rand" // secure random number generation
	"math/big"    // big.Int bound for rand.Int
)

// OTP lengths used by the credential flows.  Reset and signup links carry a
// short code because the stored expiry bounds their lifetime; session nonces
// have no stored expiry and are therefore much longer.
const (
	ResetOTPLength   = 6
	SessionOTPLength = 20
)

// NewOTP returns a digits-only one-time code of the requested length drawn
// from crypto/rand.  Each digit is sampled independently with rand.Int so
// the output is uniform (no modulo bias).  The code is opaque to the rest
// of the system; callers only ever compare it for equality against the
// stored sso_id column.
func NewOTP(length int) (string, error) {
	ten := big.NewInt(10)
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

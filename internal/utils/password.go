package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor applied when a caller supplies a cost
// outside bcrypt's supported range, including the zero value of an unset
// BCRYPT_COST.  It matches the configuration default so a misconfigured
// deployment still hashes at production strength.
const DefaultBcryptCost = 10

// HashPassword hashes a plaintext password with bcrypt.  Costs below
// bcrypt.MinCost or above bcrypt.MaxCost are replaced with
// DefaultBcryptCost; hashing never fails on a bad work factor.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

package pkg

import "golang.org/x/crypto/bcrypt"

// bcryptCost 14 is deliberately above the default; registration and
// login are rate limited, so the extra latency is fine.
const bcryptCost = 14

// HashPassword produces the bcrypt digest stored on the user row.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return BytesToString(bytes), err
}

// CheckPasswordHash verifies a login attempt against the stored digest.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

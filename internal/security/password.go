package security

import "golang.org/x/crypto/bcrypt"

// Work factor is pinned so hashes stay comparable across deploys.
const bcryptCost = 10

// HashPassword hashes a plain text password with bcrypt. The plaintext is
// never persisted anywhere.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a stored bcrypt hash with a candidate password.
// bcrypt's comparison is constant-time over the derived key.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

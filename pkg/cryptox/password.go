package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost factor used for user passwords and client
// secrets. Cost 10 lands around 100ms per verification on current hardware,
// slow enough to blunt offline guessing without hurting interactive logins.
const HashCost = 10

// HashSecret hashes a plaintext password or client secret. The result embeds
// the salt and cost, so it is the only value that needs storing.
func HashSecret(plaintext string) (string, error) {
	if plaintext == "" {
		return "", errors.New("cryptox: refusing to hash empty secret")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), HashCost)
	if err != nil {
		return "", fmt.Errorf("cryptox: hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret reports whether plaintext matches a previously stored hash.
// A mismatch is not an error condition; it simply returns false. The
// comparison runs through bcrypt's own constant-time compare.
func VerifySecret(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

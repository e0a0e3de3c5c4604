package careerpilot

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor. It is a configuration constant
// of the build, never derived from input.
const PasswordHashCost = 12

// HashPassword will generate a password hash with a fresh per-call salt
// embedded in the output, so the digest is self-contained.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. A wrong password and a malformed digest both report a
// mismatch; the caller cannot tell them apart and the function never panics.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

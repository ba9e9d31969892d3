// Package password wraps credential hashing and strength scoring.
// Strength scoring is a black box: callers only learn whether a
// password clears the acceptance threshold.
package password

import (
	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

// minScore is the zxcvbn score (0..4) a password must reach.
const minScore = 3

// Hash derives a bcrypt hash from the plaintext password.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches the stored hash.
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Acceptable scores the password, penalizing user-derived inputs such
// as the email and display name.
func Acceptable(plain string, userInputs ...string) bool {
	return zxcvbn.PasswordStrength(plain, userInputs).Score >= minScore
}

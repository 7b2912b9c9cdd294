package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/furu-identity/furu-identity/internal/shared"
)

// Hasher hashes and verifies passwords with bcrypt and enforces the
// configured password policy.
type Hasher struct {
	cost      int
	minLength int
}

// NewHasher constructs a Hasher. Out-of-range costs fall back to the bcrypt
// default.
func NewHasher(cost, minLength int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minLength <= 0 {
		minLength = 8
	}
	return &Hasher{cost: cost, minLength: minLength}
}

// Hash returns the bcrypt hash of the plaintext password.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A malformed hash
// reports false rather than an error; bcrypt's comparison is constant time.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// CheckPolicy validates a candidate password against the policy: minimum
// length plus at least one letter and one digit.
func (h *Hasher) CheckPolicy(plaintext string) error {
	if len(plaintext) < h.minLength {
		return shared.ErrWeakPassword
	}
	var hasLetter, hasDigit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return shared.ErrWeakPassword
	}
	return nil
}

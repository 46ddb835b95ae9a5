package auth

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/mpavlovs/filestore/internal/common"
)

// Characters that must not appear in a password.
const forbiddenPasswordChars = `,.<>?:[]()/\{}|"`

const minPasswordLength = 6

// HashPassword returns the bcrypt hash of the raw password.
func HashPassword(raw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether raw matches the stored bcrypt hash.
func CheckPassword(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// ValidatePassword enforces the registration password policy: at least six
// characters, at least one upper-case letter, one lower-case letter and one
// digit, and none of the forbidden punctuation characters. Violations map to
// common.ErrorWeakPassword.
func ValidatePassword(raw string) error {
	if len(raw) < minPasswordLength {
		return common.ErrorWeakPassword
	}
	if strings.ContainsAny(raw, forbiddenPasswordChars) {
		return common.ErrorWeakPassword
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range raw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return common.ErrorWeakPassword
	}
	return nil
}

package utils

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
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

// PasswordPolicyViolations checks a candidate password against the
// registration policy and returns one message per violated rule, empty
// when the password is acceptable.  The policy requires at least six
// characters, an upper-case letter, a lower-case letter and a
// non-alphanumeric character; digits are not required.
func PasswordPolicyViolations(plain string) []string {
	var violations []string
	if len(plain) < 6 {
		violations = append(violations, "Passwords must be at least 6 characters.")
	}
	var hasUpper, hasLower, hasSymbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}
	if !hasUpper {
		violations = append(violations, "Passwords must have at least one uppercase letter.")
	}
	if !hasLower {
		violations = append(violations, "Passwords must have at least one lowercase letter.")
	}
	if !hasSymbol {
		violations = append(violations, "Passwords must have at least one non-alphanumeric character.")
	}
	return violations
}

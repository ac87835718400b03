// Package shortcode generates and validates short code candidates.
//
// Generation alone does not guarantee uniqueness: callers must probe the
// store before using a candidate.
package shortcode

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// MinLen and MaxLen bound custom codes.
	MinLen = 3
	MaxLen = 8

	// GeneratedLen is the fixed length of generated codes.
	GeneratedLen = 8

	randomBytes = 6
)

// ErrInvalidCustomCode signals a custom code outside the allowed length or
// alphabet.
var ErrInvalidCustomCode = errors.New("invalid custom code")

// New returns the candidate code for a registration. A non-empty custom code
// is validated and used as-is (no randomness); otherwise a random candidate
// is generated.
func New(custom string) (string, error) {
	if custom != "" {
		if err := Validate(custom); err != nil {
			return "", err
		}
		return custom, nil
	}
	return Generate()
}

// Generate draws 6 cryptographically random bytes, encodes them as URL-safe
// base64 without padding and keeps the first 8 characters.
func Generate() (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:GeneratedLen], nil
}

// Validate checks a custom code against the length bounds and the URL-safe
// alphabet [A-Za-z0-9_-].
func Validate(code string) error {
	if len(code) < MinLen || len(code) > MaxLen {
		return fmt.Errorf("%w: length must be between %d and %d characters", ErrInvalidCustomCode, MinLen, MaxLen)
	}
	for i := 0; i < len(code); i++ {
		if !isURLSafe(code[i]) {
			return fmt.Errorf("%w: character %q is outside the URL-safe alphabet", ErrInvalidCustomCode, code[i])
		}
	}
	return nil
}

func isURLSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

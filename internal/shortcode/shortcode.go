// Package shortcode generates and validates the short codes that identify
// shortened URLs. Generation is safe for concurrent use.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"

	"slink-api/internal/apperr"
)

// Alphabet is the symbol set for generated codes: lowercase letters and
// digits with the easily-confused 0/o, 1/l pairs removed. 32 symbols, so a
// random byte maps onto it without modulo bias.
const Alphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// Custom code length bounds (generated codes are always shorter).
const (
	MinLength = 3
	MaxLength = 20
)

// Corpus-size thresholds for picking the generated code length. With a
// 32-symbol alphabet a length of 4 gives ~1M combinations, so collisions
// stay rare until the corpus approaches each threshold.
const (
	lengthFourLimit = 50_000
	lengthFiveLimit = 500_000
	lengthSixLimit  = 5_000_000
	maxGeneratedLen = 7
)

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Codes that would shadow application routes. Matched case-insensitively.
var reservedCodes = map[string]bool{
	"api":       true,
	"admin":     true,
	"login":     true,
	"logout":    true,
	"auth":      true,
	"dashboard": true,
	"settings":  true,
	"health":    true,
	"metrics":   true,
}

// Generate returns a uniformly random code of the given length drawn from
// Alphabet, using a cryptographically strong source so codes cannot be
// enumerated or guessed.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("short code length must be positive, got %d", length)
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	for i := range b {
		b[i] = Alphabet[int(b[i])%len(Alphabet)]
	}

	return string(b), nil
}

// LengthFor returns the generated-code length appropriate for the current
// total number of stored URLs. It never decreases as the corpus grows.
func LengthFor(total int64) int {
	switch {
	case total < lengthFourLimit:
		return 4
	case total < lengthFiveLimit:
		return 5
	case total < lengthSixLimit:
		return 6
	default:
		return maxGeneratedLen
	}
}

// Normalize trims whitespace and lower-cases a user-supplied code. Codes are
// stored in normalized form so availability checks are case-insensitive.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Validate checks a user-supplied custom code against the syntactic rules
// and the reserved-word set. An empty code (after trimming) is valid and
// means "auto-generate". Storage availability is checked separately by the
// service. Rules are evaluated in order; the first failure wins.
func Validate(code string) error {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil
	}

	if len(trimmed) < MinLength {
		return apperr.Validation("short code must be at least %d characters long", MinLength)
	}
	if len(trimmed) > MaxLength {
		return apperr.Validation("short code must be at most %d characters long", MaxLength)
	}
	if !codePattern.MatchString(trimmed) {
		return apperr.Validation("short code can only contain letters, numbers, hyphens, and underscores")
	}
	if reservedCodes[strings.ToLower(trimmed)] {
		return apperr.Validation("short code %q is reserved and cannot be used", trimmed)
	}

	return nil
}

// Package shortid generates and checks the random identifiers that name short links.
package shortid

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the URL-safe symbol set short IDs are drawn from (64 symbols).
const Alphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const (
	DefaultLength    = 8
	DefaultMinLength = 6
	DefaultMaxLength = 10
)

// Generator produces a candidate short ID of the given length.
// It does not guarantee uniqueness.
type Generator func(length int) (string, error)

// Generate returns length symbols drawn uniformly at random from Alphabet
// using a cryptographic random source.
func Generate(length int) (string, error) {
	const op = "shortid.Generate"

	if length <= 0 {
		return "", fmt.Errorf("%s: length must be positive, got %d", op, length)
	}

	id, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate id: %w", op, err)
	}

	return id, nil
}

// Valid reports whether id has a length within [minLen, maxLen] and
// consists only of Alphabet symbols.
func Valid(id string, minLen, maxLen int) bool {
	if len(id) < minLen || len(id) > maxLen {
		return false
	}

	for _, c := range id {
		if !strings.ContainsRune(Alphabet, c) {
			return false
		}
	}

	return true
}

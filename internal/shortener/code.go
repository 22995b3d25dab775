package shortener

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet is the set of symbols a code may contain.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the number of symbols in every code.
const CodeLength = 7

var (
	ErrInvalidCode     = errors.New("invalid code")
	ErrInvalidAlphabet = errors.New("code alphabet must not be empty")
	ErrInvalidLength   = errors.New("code length must be positive")
)

// Code represents a short URL code.
type Code string

// Validate reports whether the code has exactly CodeLength symbols from Alphabet.
func (c Code) Validate() error {
	if len(c) != CodeLength {
		return fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidCode, string(c), len(c), CodeLength)
	}

	for i := 0; i < len(c); i++ {
		if strings.IndexByte(Alphabet, c[i]) < 0 {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidCode, string(c), c[i])
		}
	}

	return nil
}

// ShortURL joins a base origin and a code into a fully qualified short link.
func ShortURL(baseOrigin string, code Code) string {
	return strings.TrimRight(baseOrigin, "/") + "/" + string(code)
}

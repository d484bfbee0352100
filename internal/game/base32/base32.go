// Package base32 encodes small integers with the 32-symbol action alphabet.
package base32

import (
	"errors"
	"fmt"
	"strings"
)

// Alphabet lists the symbols by value.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// ErrInvalid is returned for strings holding symbols outside the alphabet.
var ErrInvalid = errors.New("invalid base32 string")

// IsValid reports whether every symbol of s belongs to the alphabet,
// ignoring case. The empty string is not valid.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range strings.ToUpper(s) {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// EncodeBits5 encodes the low 5 bits of v as one symbol.
func EncodeBits5(v int) string {
	return string(Alphabet[v&0x1f])
}

// EncodeBits10 encodes the low 10 bits of v as two symbols, most
// significant first.
func EncodeBits10(v int) string {
	return EncodeBits5(v>>5) + EncodeBits5(v)
}

// Decode returns the value of a string of one or more symbols.
func Decode(s string) (int, error) {
	if !IsValid(s) {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalid)
	}
	v := 0
	for _, r := range strings.ToUpper(s) {
		v = v<<5 | strings.IndexRune(Alphabet, r)
	}
	return v, nil
}

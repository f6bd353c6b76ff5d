package util

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// MaxKeyLength bounds cache keys; longer keys are almost always a caller bug.
const MaxKeyLength = 4096

var (
	ErrEmptyKey   = errors.New("empty key")
	ErrKeyTooLong = errors.New("key too long")
	ErrKeyInvalid = errors.New("key is not valid utf-8 or contains NUL")
)

// ValidateKey rejects keys no engine can store unambiguously.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ErrEmptyKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	case !utf8.ValidString(key), strings.IndexByte(key, 0) >= 0:
		return ErrKeyInvalid
	}
	return nil
}

// Stripe maps key onto one of n lock stripes. n must be a power of two.
func Stripe(key string, n int) int {
	return int(xxhash.Sum64String(key) & uint64(n-1))
}

// EscapeSegment backslash-escapes ':' and '\' so segments joined with ':'
// split back unambiguously.
func EscapeSegment(s string) string {
	if !strings.ContainsAny(s, `:\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == ':' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

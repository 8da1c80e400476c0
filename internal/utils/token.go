package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// NewToken returns a 32-character URL-safe random identifier.
// 24 random bytes encode to exactly 32 base64url characters, matching the
// id column width used across all tables.
func NewToken() string {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand.Read only fails if the OS entropy source is broken
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

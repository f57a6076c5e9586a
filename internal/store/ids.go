package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// NewID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
// 8 chars base32 ~= 40 bits of space, enough for per-task comments and files.
func NewID(prefix string) string {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is not recoverable in a meaningful way; fall back to a uuid fragment.
		return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return prefix + "-" + strings.ToLower(enc.EncodeToString(b[:]))
}

// IDGenerator returns a func producing ids with the given prefix.
func IDGenerator(prefix string) func() string {
	return func() string { return NewID(prefix) }
}

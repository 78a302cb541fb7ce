package utils // package utils provides helpers for password hashing and opaque secrets

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for stored secrets
    "encoding/hex"
)

// ResetSecretBytes is the entropy of a password-reset secret (64 hex chars).
const ResetSecretBytes = 32

// NewSecret returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.  The raw value is handed to the user
// exactly once; only HashSecret(raw) is persisted.
func NewSecret(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}

// HashSecret returns the SHA‑256 hash of a raw secret as a hex string
// (64 characters).  Storing only the hash means a leaked database row cannot
// be replayed against the reset endpoint.
func HashSecret(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

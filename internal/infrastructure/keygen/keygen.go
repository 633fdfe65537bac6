// Package keygen generates token signing secrets and their public key IDs.
package keygen

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// MinSecretLength is the shortest signing secret accepted, in bytes.
const MinSecretLength = 32

// GenerateSecret returns 32 random bytes encoded as unpadded base64url (43 chars).
func GenerateSecret() (string, error) {
	b := make([]byte, MinSecretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// KeyID derives a short public identifier for a secret: the first 12 hex chars of
// its BLAKE2b-256 hash. Tokens carry it in the kid header so a rotated secret is
// recognisable without revealing it.
func KeyID(secret string) string {
	hash := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(hash[:6])
}

// Mask returns a safe-to-log form of a secret.
// Example: "8h3k2jf9s7d6f5g4..." -> "8h3k****"
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}

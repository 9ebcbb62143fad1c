// Package cryptox holds the cryptographic primitives used by regkeeper:
// key derivation and AES-GCM sealing for tokens at rest, and RSA field
// encryption for credentials sent to the registry.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of the random salt stored next to sealed data.
const SaltSize = 16

// DeriveKey stretches secret into a 32-byte AES-256 key with Argon2id.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier returns a digest of key that can be stored to detect a wrong
// secret without keeping the key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

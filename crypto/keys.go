// Package crypto is the only component allowed to touch plaintext
// message bodies. It derives the symmetric key once at construction
// and keeps it private to the package.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// keySalt is an application-level constant: the secret itself is
	// confidential, the salt only domain-separates the derivation.
	keySalt       = "secure-dm/message-key/v1"
	keyIterations = 100_000
	keyLength     = 32
)

// deriveKey stretches the configured secret into a 256-bit AES key.
// Deterministic for a given secret; called once per process.
func deriveKey(secret string) []byte {
	return pbkdf2.Key([]byte(secret), []byte(keySalt), keyIterations, keyLength, sha256.New)
}

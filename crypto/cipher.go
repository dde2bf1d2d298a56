package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"secure-dm/errors"

	"github.com/samber/lo"
)

const (
	// MaxPlaintextBytes bounds a single message body (UTF-8 bytes).
	MaxPlaintextBytes = 10_000
	// MaxBatchSize bounds a decrypt batch at the API boundary.
	MaxBatchSize = 100
	// Sentinel replaces the plaintext of any message that cannot be
	// decrypted, so one corrupted record never breaks a whole list.
	Sentinel = "[message could not be decrypted]"
)

// Cipher encrypts and decrypts message bodies with AES-256-GCM.
// Stateless per call and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives the key from the injected secret and builds the
// AEAD once. An empty secret is a configuration error, never a
// fallback.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.ErrMissingSecret
	}
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals the plaintext with a fresh random 96-bit nonce and
// returns base64(nonce||ciphertext||tag). Two calls with the same
// plaintext never produce the same output.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if len(plaintext) == 0 {
		return "", errors.ErrEmptyPlaintext
	}
	if len(plaintext) > MaxPlaintextBytes {
		return "", errors.ErrPlaintextTooLong
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt never fails: malformed base64, truncated input, or an
// authentication-tag mismatch all resolve to the Sentinel so a bad
// record degrades inline instead of breaking the caller.
func (c *Cipher) Decrypt(ciphertext string) string {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return Sentinel
	}
	if len(raw) <= c.aead.NonceSize() {
		return Sentinel
	}

	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return Sentinel
	}
	return string(plaintext)
}

// DecryptBatch decrypts every entry independently, preserving order
// and length. Semantically identical to calling Decrypt N times; it
// exists so callers displaying a list pay one call, not N.
func (c *Cipher) DecryptBatch(ciphertexts []string) []string {
	return lo.Map(ciphertexts, func(ct string, _ int) string {
		return c.Decrypt(ct)
	})
}

package api

import (
	"net/http"

	"secure-dm/crypto"
	"secure-dm/errors"

	"github.com/gin-gonic/gin"
)

// CryptoHandler is the encrypt/decrypt RPC boundary. Decryption
// failures are absorbed by the cipher (sentinel), so the only errors
// surfaced here are validation ones.
type CryptoHandler struct {
	cipher *crypto.Cipher
}

func NewCryptoHandler(cipher *crypto.Cipher) *CryptoHandler {
	return &CryptoHandler{cipher: cipher}
}

type cryptoRequest struct {
	Action string   `json:"action"`
	Text   string   `json:"text"`
	Texts  []string `json:"texts"`
}

func (h *CryptoHandler) Handle(c *gin.Context) {
	var req cryptoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	switch req.Action {
	case "encrypt":
		encrypted, err := h.cipher.Encrypt(req.Text)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"encrypted": encrypted})

	case "decrypt":
		if req.Texts != nil {
			if len(req.Texts) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrEmptyBatch.Error()})
				return
			}
			// Rejected, never truncated: the bound caps worst-case
			// request cost.
			if len(req.Texts) > crypto.MaxBatchSize {
				c.JSON(http.StatusBadRequest, gin.H{"error": errors.ErrBatchTooLarge.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"decrypted": h.cipher.DecryptBatch(req.Texts)})
			return
		}
		if req.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text or texts is required"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"decrypted": h.cipher.Decrypt(req.Text)})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
	}
}

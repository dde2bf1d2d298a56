package api

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"secure-dm/errors"
	"secure-dm/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type MessageHandler struct {
	log       *slog.Logger
	messenger *services.Messenger
}

func NewMessageHandler(log *slog.Logger, messenger *services.Messenger) *MessageHandler {
	return &MessageHandler{log: log, messenger: messenger}
}

type sendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// Send accepts plaintext from the authenticated sender, encrypts and
// persists it, and reports the stored message (ciphertext) back.
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.messenger.Send(c.GetString(ctxUserID), req.ReceiverID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// Thread returns the conversation with a partner, oldest first, with
// plaintext resolved (sentinel for undecryptable records).
func (h *MessageHandler) Thread(c *gin.Context) {
	var cursor *string
	if value := c.Query("cursor"); value != "" {
		cursor = &value
	}

	messages, next, err := h.messenger.Thread(c.GetString(ctxUserID), c.Param("partnerID"), cursor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"messages":    messages,
		"next_cursor": next,
	})
}

// MarkRead stamps every unread message from the partner. A no-op
// returns updated: 0, not an error.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	updated, err := h.messenger.MarkRead(c.GetString(ctxUserID), c.Param("partnerID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *MessageHandler) fail(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, errors.ErrSelfMessage),
		stderrors.Is(err, errors.ErrEmptyPlaintext),
		stderrors.Is(err, errors.ErrPlaintextTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case stderrors.Is(err, errors.ErrCrossOrganization):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case stderrors.Is(err, errors.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("Message operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

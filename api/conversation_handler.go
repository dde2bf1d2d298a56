package api

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"secure-dm/errors"
	"secure-dm/services"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	log           *slog.Logger
	conversations *services.ConversationService
}

func NewConversationHandler(log *slog.Logger, conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{log: log, conversations: conversations}
}

// List returns the viewer's conversation list: correspondents with
// decrypted previews first, then organization members without any
// conversation yet.
func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.conversations.List(c.GetString(ctxUserID))
	if err != nil {
		if stderrors.Is(err, errors.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Conversation aggregation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

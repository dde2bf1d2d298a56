// Package api wires the HTTP surface: the crypto RPC, message and
// conversation endpoints, and the realtime websocket.
package api

import (
	"log/slog"
	"net/http"

	"secure-dm/auth"
	"secure-dm/crypto"
	"secure-dm/observability"
	"secure-dm/realtime"
	"secure-dm/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter assembles the gin engine. Everything under /api/v1
// requires a valid token; health and debug endpoints do not.
func NewRouter(log *slog.Logger, cipher *crypto.Cipher, messenger *services.Messenger,
	conversations *services.ConversationService, broker *realtime.Broker,
	tokens *auth.TokenManager, stats *observability.Collector) *gin.Engine {

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/debug/status", func(c *gin.Context) {
		snapshot, err := stats.Snapshot()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "stats unavailable"})
			return
		}
		c.JSON(http.StatusOK, snapshot)
	})

	cryptoHandler := NewCryptoHandler(cipher)
	messageHandler := NewMessageHandler(log, messenger)
	conversationHandler := NewConversationHandler(log, conversations)
	streamHandler := NewStreamHandler(log, broker)

	v1 := router.Group("/api/v1", AuthRequired(tokens))
	{
		v1.POST("/crypto", cryptoHandler.Handle)
		v1.POST("/messages", messageHandler.Send)
		v1.GET("/threads/:partnerID", messageHandler.Thread)
		v1.POST("/threads/:partnerID/read", messageHandler.MarkRead)
		v1.GET("/conversations", conversationHandler.List)
		v1.GET("/ws", streamHandler.Stream)
	}

	return router
}

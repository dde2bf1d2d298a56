package api

import (
	"net/http"
	"strings"

	"secure-dm/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID         = "user_id"
	ctxOrganizationID = "organization_id"
)

// AuthRequired validates the bearer token and injects the caller's
// identity into the request context. Browsers cannot set headers on
// websocket upgrades, so a "token" query parameter is accepted too.
func AuthRequired(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if token := c.Query("token"); token != "" {
				header = "Bearer " + token
			}
		}
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := tokens.Validate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxOrganizationID, claims.OrganizationID)
		c.Next()
	}
}

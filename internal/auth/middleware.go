package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// Context keys for caller data
	ContextKeyClientID = "client_id"
	ContextKeyClaims   = "client_claims"

	// HeaderAPIKey carries the shared API key
	HeaderAPIKey = "X-API-Key"
)

// Middleware accepts either a bearer JWT or an X-API-Key matching apiKeyHash.
// A nil jwtManager or empty apiKeyHash disables that method.
func Middleware(jwtManager *JWTManager, apiKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(HeaderAPIKey); key != "" {
			if apiKeyHash == "" || !VerifyAPIKey(key, apiKeyHash) {
				abort(c, ErrInvalidKey)
				return
			}
			c.Set(ContextKeyClientID, "api-key")
			c.Next()
			return
		}

		// Extract token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   ErrUnauthorized.Code,
				"message": "missing authorization header",
			})
			return
		}

		// Check Bearer prefix
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   ErrUnauthorized.Code,
				"message": "invalid authorization header format",
			})
			return
		}

		if jwtManager == nil {
			abort(c, ErrInvalidToken)
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			var authErr AuthError
			if !errors.As(err, &authErr) {
				authErr = ErrInvalidToken
			}
			abort(c, authErr)
			return
		}

		c.Set(ContextKeyClientID, claims.ClientID)
		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

func abort(c *gin.Context, e AuthError) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   e.Code,
		"message": e.Message,
	})
}

// GetClientID extracts the caller id from the Gin context
func GetClientID(c *gin.Context) string {
	return c.GetString(ContextKeyClientID)
}

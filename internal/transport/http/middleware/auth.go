package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row/gamecore/pkg/auth"
	"github.com/iamasit07/4-in-a-row/gamecore/pkg/httputil"
)

// PlayerIDKey holds the token's player id in the gin context.
const PlayerIDKey = "player_id"

// AuthMiddleware validates the JWT from the query, cookie or header and
// stores its player id for the handler.
func AuthMiddleware(tokens *auth.TokenManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := httputil.GetTokenFromRequest(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			logger.Info("[AUTH] Rejected token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(PlayerIDKey, claims.PlayerID)
		c.Next()
	}
}

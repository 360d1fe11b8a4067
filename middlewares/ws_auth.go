package middlewares

import (
	"caketime/pkg/resp"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

// WSAuthMiddleware is AdminAuthMiddleware for browsers that cannot set
// headers on a websocket handshake: the token may come in ?token=.
func WSAuthMiddleware(tokens *utils.AdminTokens, users UserLoader, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			tokenStr = bearerToken(c)
		}
		if tokenStr == "" {
			resp.Unauthorized(c, "missing token")
			c.Abort()
			return
		}
		if !authenticateAdmin(c, tokens, users, revoked, tokenStr) {
			c.Abort()
			return
		}
		c.Next()
	}
}

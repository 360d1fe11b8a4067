package middlewares

import (
	"context"
	"slices"

	"caketime/entity"
	"caketime/pkg/resp"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AdminAuthMiddleware accepts dashboard tokens only. The role is re-read from
// the database so a demoted account loses access before its token expires.
func AdminAuthMiddleware(tokens *utils.AdminTokens, users UserLoader, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			resp.Unauthorized(c, "missing or invalid token")
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

func authenticateAdmin(c *gin.Context, tokens *utils.AdminTokens, users UserLoader, revoked RevocationChecker, tokenStr string) bool {
	claims, err := tokens.Parse(tokenStr)
	if err != nil {
		resp.Unauthorized(c, "invalid token")
		return false
	}
	isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		resp.ServerError(c, err)
		return false
	}
	if isRevoked {
		resp.Unauthorized(c, "token has been revoked")
		return false
	}
	user, ok := loadUser(c, users, claims.UserID)
	if !ok {
		return false
	}
	if !user.Role.IsBackOffice() {
		resp.Forbidden(c, "forbidden")
		return false
	}
	c.Set(utils.CtxUserID, user.ID)
	c.Set(utils.CtxRole, user.Role)
	c.Set(utils.CtxUser, user)
	c.Set(utils.CtxClaims, claims)
	return true
}

// RequireRoles must run after an auth middleware.
func RequireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, utils.CurrentRole(c)) {
			resp.Forbidden(c, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

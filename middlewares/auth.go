package middlewares

import (
	"context"
	"errors"
	"strings"

	"caketime/entity"
	"caketime/pkg/resp"
	"caketime/services"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

// UserLoader resolves the account behind a token. A missing account is
// services.ErrNotFound.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*entity.User, error)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// AuthMiddleware requires a storefront token and loads the user behind it.
func AuthMiddleware(tokens *utils.CustomerTokens, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			resp.Unauthorized(c, "missing or invalid token")
			c.Abort()
			return
		}
		if !authenticate(c, tokens, users, tokenStr) {
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the user when a token is sent. A bad token is still
// rejected rather than silently treated as a guest.
func OptionalAuth(tokens *utils.CustomerTokens, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.Next()
			return
		}
		if !authenticate(c, tokens, users, tokenStr) {
			c.Abort()
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, tokens *utils.CustomerTokens, users UserLoader, tokenStr string) bool {
	claims, err := tokens.Parse(tokenStr)
	if err != nil {
		resp.Unauthorized(c, "invalid token")
		return false
	}
	user, ok := loadUser(c, users, claims.UserID)
	if !ok {
		return false
	}
	c.Set(utils.CtxUserID, user.ID)
	c.Set(utils.CtxRole, user.Role)
	c.Set(utils.CtxUser, user)
	c.Set(utils.CtxClaims, claims)
	return true
}

// loadUser answers 401 for a deleted account and 500 when the lookup fails.
func loadUser(c *gin.Context, users UserLoader, id uint) (*entity.User, bool) {
	user, err := users.GetUser(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		resp.Unauthorized(c, "user no longer exists")
		return nil, false
	}
	if err != nil {
		resp.ServerError(c, err)
		return nil, false
	}
	return user, true
}

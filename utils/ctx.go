package utils

import (
	"caketime/entity"

	"github.com/gin-gonic/gin"
)

const (
	CtxUserID = "userId"
	CtxRole   = "role"
	CtxUser   = "user"
	CtxClaims = "claims"
)

func CurrentUserID(c *gin.Context) uint {
	v, _ := c.Get(CtxUserID)
	switch id := v.(type) {
	case uint:
		return id
	case int:
		return uint(id)
	case int64:
		return uint(id)
	case float64:
		return uint(id)
	default:
		return 0
	}
}

func CurrentRole(c *gin.Context) entity.Role {
	if v, ok := c.Get(CtxRole); ok {
		if r, ok := v.(entity.Role); ok {
			return r
		}
	}
	return ""
}

func CurrentUser(c *gin.Context) *entity.User {
	if v, ok := c.Get(CtxUser); ok {
		if u, ok := v.(*entity.User); ok {
			return u
		}
	}
	return nil
}

func CurrentClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(CtxClaims); ok {
		if cl, ok := v.(*Claims); ok {
			return cl
		}
	}
	return nil
}

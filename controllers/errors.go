package controllers

import (
	"errors"
	"strconv"

	"caketime/pkg/resp"
	"caketime/services"

	"github.com/gin-gonic/gin"
)

var badRequestErrs = []error{
	services.ErrEmailTaken,
	services.ErrInvalidRole,
	services.ErrInvalidStatus,
	services.ErrInvalidCategory,
	services.ErrInvalidCakeType,
	services.ErrProductUnavailable,
	services.ErrOutOfStock,
	services.ErrEmptyOrder,
	services.ErrInvalidAmount,
	services.ErrAmountMismatch,
	services.ErrPaymentNotSucceeded,
	services.ErrOrderNotPayable,
	services.ErrOrderRequired,
	services.ErrAlreadyReviewed,
	services.ErrInvalidSignature,
	services.ErrInvalidPeriod,
}

// writeError maps service errors onto HTTP answers.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		resp.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		resp.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrForbidden):
		resp.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrStatusConflict):
		resp.Conflict(c, err.Error())
	case errors.Is(err, services.ErrGatewayUnavailable):
		resp.ServiceUnavailable(c, "payments are not available right now")
	default:
		for _, target := range badRequestErrs {
			if errors.Is(err, target) {
				resp.BadRequest(c, err.Error())
				return
			}
		}
		resp.ServerError(c, err)
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		resp.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}

// queryBool returns nil when the parameter is absent or unparsable.
func queryBool(c *gin.Context, name string) *bool {
	v, err := strconv.ParseBool(c.Query(name))
	if err != nil {
		return nil
	}
	return &v
}

package controllers

import (
	"strings"
	"time"

	"caketime/pkg/resp"
	"caketime/repository"
	"caketime/services"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderController struct {
	svc *services.OrderService
}

func NewOrderController(svc *services.OrderService) *OrderController {
	return &OrderController{svc: svc}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /orders
func (oc *OrderController) Create(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}

	var userID *uint
	if uid := utils.CurrentUserID(c); uid != 0 {
		userID = &uid
	}
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if len(key) > 128 {
		resp.BadRequest(c, IdempotencyHeader+" is too long")
		return
	}

	order, created, err := oc.svc.Create(c.Request.Context(), &req, userID, key)
	if err != nil {
		writeError(c, err)
		return
	}
	if !created {
		resp.OK(c, order)
		return
	}
	resp.Created(c, order)
}

// GET /orders
func (oc *OrderController) List(c *gin.Context) {
	f, ok := orderFilter(c)
	if !ok {
		return
	}
	page, err := oc.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, page)
}

// GET /orders/:id
func (oc *OrderController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := oc.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, o)
}

// PUT /orders/:id/status
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	o, err := oc.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, o)
}

// DELETE /orders/:id
func (oc *OrderController) Cancel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	o, err := oc.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, o)
}

// orderFilter reads status, paymentStatus, from, to (YYYY-MM-DD, inclusive),
// search, page and limit.
func orderFilter(c *gin.Context) (repository.OrderFilter, bool) {
	f := repository.OrderFilter{
		Status:        c.Query("status"),
		PaymentStatus: c.Query("paymentStatus"),
		Search:        c.Query("search"),
		Page:          queryInt(c, "page", 1),
		Limit:         queryInt(c, "limit", 20),
	}
	from, to, ok := dateRange(c)
	if !ok {
		return f, false
	}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	return f, true
}

// dateRange parses ?from=&to= as whole days; to is made exclusive.
func dateRange(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.ParseInLocation(time.DateOnly, v, time.Local); err != nil {
			resp.BadRequest(c, "from must be YYYY-MM-DD")
			return from, to, false
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.ParseInLocation(time.DateOnly, v, time.Local); err != nil {
			resp.BadRequest(c, "to must be YYYY-MM-DD")
			return from, to, false
		}
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		resp.BadRequest(c, "from must not be after to")
		return from, to, false
	}
	return from, to, true
}

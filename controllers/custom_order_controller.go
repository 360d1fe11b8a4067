package controllers

import (
	"caketime/pkg/resp"
	"caketime/services"

	"github.com/gin-gonic/gin"
)

type CustomOrderController struct {
	svc *services.CustomOrderService
}

func NewCustomOrderController(svc *services.CustomOrderService) *CustomOrderController {
	return &CustomOrderController{svc: svc}
}

// POST /custom-orders
func (cc *CustomOrderController) Create(c *gin.Context) {
	var req services.CustomOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	co, err := cc.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.Created(c, co)
}

// GET /custom-orders
func (cc *CustomOrderController) List(c *gin.Context) {
	page, err := cc.svc.List(c.Request.Context(),
		c.Query("status"), c.Query("search"),
		queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, page)
}

// GET /custom-orders/:id
func (cc *CustomOrderController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	co, err := cc.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, co)
}

// PUT /custom-orders/:id
func (cc *CustomOrderController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.CustomOrderUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	co, err := cc.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, co)
}

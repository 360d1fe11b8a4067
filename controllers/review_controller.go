package controllers

import (
	"caketime/pkg/resp"
	"caketime/services"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	svc *services.ReviewService
}

func NewReviewController(svc *services.ReviewService) *ReviewController {
	return &ReviewController{svc: svc}
}

// GET /reviews/product/:productId
func (rc *ReviewController) ForProduct(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	out, err := rc.svc.ForProduct(c.Request.Context(), productID,
		queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, out)
}

// POST /reviews
func (rc *ReviewController) Create(c *gin.Context) {
	var req services.ReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	rev, err := rc.svc.Create(c.Request.Context(), utils.CurrentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.Created(c, gin.H{"review": rev, "message": "review submitted for approval"})
}

// GET /reviews
func (rc *ReviewController) List(c *gin.Context) {
	page, err := rc.svc.ListAll(c.Request.Context(), queryBool(c, "approved"),
		queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, page)
}

// PATCH /reviews/:id/approve
func (rc *ReviewController) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rev, err := rc.svc.Approve(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, rev)
}

// DELETE /reviews/:id
func (rc *ReviewController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rc.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, gin.H{"message": "review deleted"})
}

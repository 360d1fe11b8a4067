package controllers

import (
	"caketime/pkg/resp"
	"caketime/repository"
	"caketime/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ProductController struct {
	svc *services.ProductService
}

func NewProductController(svc *services.ProductService) *ProductController {
	return &ProductController{svc: svc}
}

// GET /products
func (pc *ProductController) List(c *gin.Context) {
	f := repository.ProductFilter{
		Category: c.Query("category"),
		Flavor:   c.Query("flavor"),
		Occasion: c.Query("occasion"),
		Eggless:  queryBool(c, "eggless"),
		Featured: queryBool(c, "featured"),
		InStock:  queryBool(c, "inStock"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 12),
	}
	if v := c.Query("minPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			resp.BadRequest(c, "invalid minPrice")
			return
		}
		f.MinPrice = &d
	}
	if v := c.Query("maxPrice"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			resp.BadRequest(c, "invalid maxPrice")
			return
		}
		f.MaxPrice = &d
	}

	page, err := pc.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, page)
}

// GET /products/:id
func (pc *ProductController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := pc.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, p)
}

// POST /products
func (pc *ProductController) Create(c *gin.Context) {
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	p, err := pc.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.Created(c, p)
}

// PUT /products/:id
func (pc *ProductController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	p, err := pc.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, p)
}

// DELETE /products/:id
func (pc *ProductController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := pc.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, gin.H{"message": "product deleted"})
}

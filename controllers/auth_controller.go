package controllers

import (
	"caketime/entity"
	"caketime/pkg/resp"
	"caketime/services"
	"caketime/utils"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Phone    string `json:"phone" binding:"omitempty,min=7,max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAdminRequest struct {
	RegisterRequest
	Role string `json:"role" binding:"omitempty,oneof=admin staff"`
}

type AuthController struct {
	svc *services.AuthService
}

func NewAuthController(svc *services.AuthService) *AuthController {
	return &AuthController{svc: svc}
}

// POST /auth/register
func (a *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	token, user, err := a.svc.Register(c.Request.Context(), services.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	resp.Created(c, gin.H{"token": token, "user": user})
}

// POST /auth/login
func (a *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	token, user, err := a.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, gin.H{"token": token, "user": user})
}

// GET /auth/me and /admin/auth/me
func (a *AuthController) Me(c *gin.Context) {
	user := utils.CurrentUser(c)
	if user == nil {
		resp.Unauthorized(c, "unauthorized")
		return
	}
	resp.OK(c, user)
}

// POST /admin/auth/login
func (a *AuthController) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	token, user, err := a.svc.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.OK(c, gin.H{"token": token, "user": user})
}

// POST /admin/auth/create-admin
func (a *AuthController) CreateAdmin(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.ValidationError(c, err)
		return
	}
	role := entity.Role(req.Role)
	if role == "" {
		role = entity.RoleStaff
	}
	user, err := a.svc.CreateStaff(c.Request.Context(), services.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Phone: req.Phone,
	}, role)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.Created(c, user)
}

// POST /admin/auth/logout
func (a *AuthController) AdminLogout(c *gin.Context) {
	if err := a.svc.Logout(c.Request.Context(), utils.CurrentClaims(c)); err != nil {
		resp.ServerError(c, err)
		return
	}
	resp.OK(c, gin.H{"message": "logged out"})
}

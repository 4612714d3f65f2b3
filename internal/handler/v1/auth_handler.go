package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/klinikku/clinic-api/internal/domain"
	"github.com/klinikku/clinic-api/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

type registerStaffRequest struct {
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	FullName       string `json:"full_name" binding:"required"`
	Role           string `json:"role" binding:"required"`
	Specialization string `json:"specialization"`
}

func (h *AuthHandler) RegisterStaff(c *gin.Context) {
	var req registerStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	callerID, callerRole, ip := caller(c)
	u, err := h.svc.RegisterStaff(c.Request.Context(), &service.RegisterStaffCommand{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Role:           domain.Role(req.Role),
		Specialization: req.Specialization,
	}, callerID, callerRole, ip)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	// Never echo the password hash back.
	u.PasswordHash = ""
	respondCreated(c, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	claims := callerClaims(c)
	if claims == nil {
		respondError(c, 401, "authentication required")
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "password updated"})
}

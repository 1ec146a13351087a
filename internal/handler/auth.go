package handler

import (
	"net/http"

	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/dto"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/middleware"
	"github.com/jtalmeidaAdvir/WorkCrewManager/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc   service.AuthService
	users service.UserService
}

func NewAuthHandler(svc service.AuthService, users service.UserService) *AuthHandler {
	return &AuthHandler{svc: svc, users: users}
}

// Login exchanges username and password for an access/refresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated user as currently stored.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// ChangeRole lets the caller set their own role.
func (h *AuthHandler) ChangeRole(c *gin.Context) {
	var req dto.ChangeRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.users.SetRole(c.Request.Context(), middleware.CurrentUser(c).ID, req.TipoUser)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

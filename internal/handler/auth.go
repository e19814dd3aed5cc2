package handler

import (
	"net/http"
	"time"

	"smart-inventory/internal/logger"
	"smart-inventory/internal/middleware"
	"smart-inventory/internal/model"
	"smart-inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	auth *service.AuthService
	role RoleResolver
}

func NewAuthHandler(auth *service.AuthService, role RoleResolver) *AuthHandler {
	return &AuthHandler{auth: auth, role: role}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	m, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warn("login.failed", "username", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	role := h.role.Resolve(c.Request.Context(), m.ID)
	logger.Info("login.ok", "uid", m.ID, "name", m.Name, "role", role)

	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  m.ID,
		"name": m.Name,
		"exp":  time.Now().Add(7 * 24 * time.Hour).Unix(),
	}).SignedString(middleware.JWTSecret)

	c.JSON(http.StatusOK, model.LoginResponse{
		Token: token,
		User:  model.User{ID: m.ID, Name: m.Name, Role: role},
	})
}

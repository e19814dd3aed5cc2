package handler

import (
	"net/http"

	"smart-inventory/internal/logger"
	"smart-inventory/internal/model"

	"github.com/gin-gonic/gin"
)

// RoleHandler 会话角色端点：只读暴露 + 服务端钳制的主动降级。
type RoleHandler struct {
	role RoleResolver
}

func NewRoleHandler(role RoleResolver) *RoleHandler { return &RoleHandler{role: role} }

// Get 返回所属角色和本会话生效角色。
func (h *RoleHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	uid := c.GetInt("user_id")
	c.JSON(http.StatusOK, model.SessionRoleResponse{
		AssignedRole: h.role.Assigned(ctx, uid),
		ActiveRole:   h.role.Resolve(ctx, uid),
	})
}

// Set 写入会话降级角色；只能选不高于所属角色的角色，越权直接拒绝。
func (h *RoleHandler) Set(c *gin.Context) {
	var req model.SessionRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ctx := c.Request.Context()
	uid := c.GetInt("user_id")
	if err := h.role.SetSessionRole(ctx, uid, req.Role); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	logger.Info("role.session set", "uid", uid, "role", req.Role)
	c.JSON(http.StatusOK, model.SessionRoleResponse{
		AssignedRole: h.role.Assigned(ctx, uid),
		ActiveRole:   h.role.Resolve(ctx, uid),
	})
}

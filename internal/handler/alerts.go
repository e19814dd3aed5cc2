package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"smart-inventory/internal/logger"
	"smart-inventory/internal/model"
	"smart-inventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// AlertHandler 风险记录的复核界面：列表、标记处理、导出。仅经理及以上可见。
type AlertHandler struct {
	audit *service.AuditService
	role  RoleResolver
}

func NewAlertHandler(audit *service.AuditService, role RoleResolver) *AlertHandler {
	return &AlertHandler{audit: audit, role: role}
}

func (h *AlertHandler) requireManager(c *gin.Context) bool {
	role := h.role.Resolve(c.Request.Context(), c.GetInt("user_id"))
	if !role.AtLeast(model.RoleManager) {
		c.JSON(http.StatusForbidden, gin.H{"error": "风险记录仅限经理及以上角色查看"})
		return false
	}
	return true
}

// List handles GET /api/alerts?status=open&limit=100
func (h *AlertHandler) List(c *gin.Context) {
	if !h.requireManager(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	alerts, err := h.audit.List(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if alerts == nil {
		alerts = []model.RiskAlert{}
	}
	c.JSON(http.StatusOK, alerts)
}

// Resolve handles POST /api/alerts/:id/resolve
func (h *AlertHandler) Resolve(c *gin.Context) {
	if !h.requireManager(c) {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	resolver := c.GetString("user_name")
	if err := h.audit.Resolve(c.Request.Context(), id, resolver); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found or already resolved"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Info("alert.resolved", "id", id, "by", resolver)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Export handles GET /api/alerts/export — 导出 xlsx 给离线复核
func (h *AlertHandler) Export(c *gin.Context) {
	if !h.requireManager(c) {
		return
	}
	alerts, err := h.audit.List(c.Request.Context(), c.Query("status"), 500)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{"ID", "触发消息", "风险分", "原因", "状态", "处理人", "创建时间"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, head)
	}
	for row, a := range alerts {
		values := []interface{}{
			a.ID, a.TriggerMessage, a.RiskScore, a.Reason, a.Status, a.ResolvedBy,
			a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("risk_alerts_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		logger.Error("alert.export failed", "err", err)
	}
}

package handler

import (
	"net/http"

	"smart-inventory/internal/logger"
	"smart-inventory/internal/model"
	"smart-inventory/internal/service"

	"github.com/gin-gonic/gin"
)

// QueryHandler 预览/执行两个端点。
// 写语句从不一步到位：先 preview 拿到试跑结果，用户确认后再单独调 execute。
type QueryHandler struct {
	exec Executor
	role RoleResolver
}

func NewQueryHandler(exec Executor, role RoleResolver) *QueryHandler {
	return &QueryHandler{exec: exec, role: role}
}

// 按首关键词独立分类，不信 chat 端点给语句贴的标签。
func (h *QueryHandler) rejectManipulation(c *gin.Context, sql string) bool {
	if !service.IsManipulation(sql) {
		return false
	}
	role := h.role.Resolve(c.Request.Context(), c.GetInt("user_id"))
	if role == model.RoleSalesRep {
		c.JSON(http.StatusForbidden, gin.H{"error": "销售代表角色仅允许只读查询"})
		return true
	}
	return false
}

// Preview 在回滚事务里试跑语句，返回效果但不落库。
func (h *QueryHandler) Preview(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.PreviewResponse{Error: "invalid request"})
		return
	}
	if h.rejectManipulation(c, req.SQL) {
		return
	}

	rows, affected, err := h.exec.Preview(c.Request.Context(), req.SQL)
	if err != nil {
		// 底层错误原样透出，方便用户修正语句
		c.JSON(http.StatusOK, model.PreviewResponse{Error: err.Error()})
		return
	}

	logger.Info("query.preview", "rid", c.GetString("request_id"), "uid", c.GetInt("user_id"), "affected", affected)
	c.JSON(http.StatusOK, model.PreviewResponse{Data: gin.H{
		"rows":          rows,
		"rows_affected": affected,
		"statement":     req.SQL,
	}})
}

// Execute 执行已确认的语句；占位符在这里解析，解析不掉就拒绝执行。
func (h *QueryHandler) Execute(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ExecuteResponse{Error: "invalid request"})
		return
	}
	if h.rejectManipulation(c, req.SQL) {
		return
	}

	name := c.GetString("user_name")
	sql, err := service.ResolvePlaceholders(req.SQL, name, "")
	if err != nil {
		c.JSON(http.StatusOK, model.ExecuteResponse{Error: err.Error()})
		return
	}

	rows, affected, err := h.exec.Execute(c.Request.Context(), sql)
	if err != nil {
		c.JSON(http.StatusOK, model.ExecuteResponse{Error: err.Error()})
		return
	}

	logger.Info("query.execute", "rid", c.GetString("request_id"), "uid", c.GetInt("user_id"), "affected", affected)

	// 写语句影响 0 行多半是名称/编号没对上，按软失败提示，不算成功
	if service.IsManipulation(sql) && affected == 0 {
		c.JSON(http.StatusOK, model.ExecuteResponse{
			Success: false,
			Error:   "语句已执行但未影响任何记录，请确认名称或编号是否正确。",
		})
		return
	}

	c.JSON(http.StatusOK, model.ExecuteResponse{Success: true, Data: gin.H{
		"rows":          rows,
		"rows_affected": affected,
	}})
}

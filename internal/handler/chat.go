package handler

import (
	"errors"
	"net/http"
	"strings"

	"smart-inventory/internal/logger"
	"smart-inventory/internal/model"
	"smart-inventory/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler 意图端点：自然语言 → 意图文档。
// 顺序固定：解析角色 → 合成 → 权限拦截 → 风险审计 → 返回；拦截是唯一卡口。
type ChatHandler struct {
	ai       Synthesizer
	role     RoleResolver
	snapshot SnapshotLoader
	audit    Recorder
}

func NewChatHandler(ai Synthesizer, role RoleResolver, snapshot SnapshotLoader, audit Recorder) *ChatHandler {
	return &ChatHandler{ai: ai, role: role, snapshot: snapshot, audit: audit}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if h.ai == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "llm not configured"})
		return
	}

	ctx := c.Request.Context()
	uid := c.GetInt("user_id")
	name := c.GetString("user_name")
	role := h.role.Resolve(ctx, uid)
	logger.Info("chat.request", "rid", c.GetString("request_id"), "uid", uid, "role", role, "message", req.Message)

	snap, err := h.snapshot.Load(ctx)
	if err != nil {
		logger.Error("chat.snapshot failed", "err", err)
		c.JSON(http.StatusOK, model.ChatError{Error: "snapshot_failed", Explanation: "参考数据加载失败，请稍后再试。"})
		return
	}

	doc, err := h.ai.Synthesize(ctx, req.Message, role, snap)
	if err != nil {
		if errors.Is(err, service.ErrParse) {
			logger.Warn("chat.parse failed", "err", err)
			c.JSON(http.StatusOK, model.ChatError{Error: "parse_error", Explanation: "没能理解这条请求，请换个说法再试一次。"})
			return
		}
		logger.Error("chat.synthesize failed", "err", err)
		c.JSON(http.StatusOK, model.ChatError{Error: "synthesis_failed", Explanation: "智能服务暂时不可用，请稍后再试。"})
		return
	}

	final, verdict := service.Intercept(role, doc, req.Message)
	if !verdict.Authorized {
		logger.Warn("chat.denied", "uid", uid, "role", role, "reason", verdict.Reason)
	}

	// 票据已上传时提前把 {{bill_url}} 填进提案，未解析的占位符由执行端兜底拒绝
	if verdict.Authorized && req.BillURL != "" {
		bill := strings.ReplaceAll(req.BillURL, "'", "''")
		final.SQL = strings.ReplaceAll(final.SQL, "{{bill_url}}", bill)
		for i := range final.Plan {
			final.Plan[i].SQL = strings.ReplaceAll(final.Plan[i].SQL, "{{bill_url}}", bill)
		}
	}

	// 审计看拦截后的文档：被拒绝的高风险尝试本身就是要记的事件
	if service.ShouldAudit(final) {
		h.audit.Record(final, req.Message, role, name, c.GetString("request_id"), verdict)
	}

	logger.Info("chat.done", "uid", uid, "intent", final.Intent, "authorized", verdict.Authorized)
	c.JSON(http.StatusOK, final)
}

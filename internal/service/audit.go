package service

import (
	"context"
	"encoding/json"
	"time"

	"smart-inventory/internal/logger"
	"smart-inventory/internal/model"

	"gorm.io/gorm"
)

// AuditService 风险审计：高风险或操作类意图异步落库，被正确拒绝的尝试同样记录。
// 落库失败只打日志，绝不影响已经在返回的响应。
type AuditService struct{ db *gorm.DB }

// NewAuditService 的 db 应是服务级账号连接；请求主体自己可能没有审计表写权限。
func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{db: db} }

// ShouldAudit 基于拦截后的文档判断：risk 为 high，或意图是操作类。
func ShouldAudit(doc *model.IntentDocument) bool {
	return doc.HighRisk() || doc.Intent.Operational()
}

// Exposure 金额敞口：计划各步 数量×单价 之和，缺省按 0。
func Exposure(doc *model.IntentDocument) float64 {
	var total float64
	for _, step := range doc.Plan {
		total += float64(step.Params.Quantity) * step.Params.Price
	}
	if total == 0 && doc.Params != nil {
		total = float64(doc.Params.Quantity) * doc.Params.Price
	}
	return total
}

// RiskScore 确定性的累加评分，不是异常检测，只为复核排序。
func RiskScore(doc *model.IntentDocument, authorized bool) int {
	score := 0
	if doc.HighRisk() {
		score += 6
	}
	if doc.Intent.Operational() {
		score += 2
	}
	if !authorized {
		score += 4
	}
	if len(doc.Plan) > 1 {
		score += 2
	}
	if Exposure(doc) > 100000 {
		score += 6
	}
	return score
}

type auditContext struct {
	Classification *model.Classification `json:"classification,omitempty"`
	Exposure       float64               `json:"exposure"`
	Plan           []model.PlanStep      `json:"plan,omitempty"`
	Role           model.Role            `json:"role"`
	User           string                `json:"user"`
	RequestID      string                `json:"request_id,omitempty"`
	Authorized     bool                  `json:"authorized"`
}

// Record 异步持久化一条风险记录，调用方不等待也看不到失败。
func (s *AuditService) Record(doc *model.IntentDocument, rawText string, role model.Role, user, requestID string, v Verdict) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		meta, _ := json.Marshal(auditContext{
			Classification: doc.Classification,
			Exposure:       Exposure(doc),
			Plan:           doc.Plan,
			Role:           role,
			User:           user,
			RequestID:      requestID,
			Authorized:     v.Authorized,
		})

		reason := v.Reason
		if v.Authorized {
			reason = "high-risk or operational intent"
		}
		alert := model.RiskAlert{
			TriggerMessage: rawText,
			RiskScore:      RiskScore(doc, v.Authorized),
			Reason:         reason,
			Metadata:       string(meta),
			Status:         "open",
		}
		if err := s.db.WithContext(ctx).Create(&alert).Error; err != nil {
			logger.Error("risk audit write failed", "err", err, "user", user)
			return
		}
		logger.Info("risk audit recorded", "id", alert.ID, "score", alert.RiskScore, "authorized", v.Authorized)
	}()
}

// List 返回风险记录，复核界面用。
func (s *AuditService) List(ctx context.Context, status string, limit int) ([]model.RiskAlert, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var alerts []model.RiskAlert
	if err := q.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Resolve 复核人标记处理完成；记录只增改不删。
func (s *AuditService) Resolve(ctx context.Context, id int, resolver string) error {
	res := s.db.WithContext(ctx).Model(&model.RiskAlert{}).
		Where("id = ? AND status = ?", id, "open").
		Updates(map[string]interface{}{"status": "resolved", "resolved_by": resolver})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

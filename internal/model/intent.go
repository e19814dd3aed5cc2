package model

// 意图文档：大模型对单条用户请求的结构化提案。
// 在权限拦截器确认之前，所有字段（尤其 permissions 检查）只是建议，不可信。

// Intent 意图标签。
type Intent string

const (
	IntentPlan       Intent = "plan"
	IntentMove       Intent = "move"
	IntentOrder      Intent = "order"
	IntentAdjustment Intent = "adjustment"
	IntentReceive    Intent = "receive"
	IntentCancel     Intent = "cancel"
	IntentQuery      Intent = "query"
	IntentNone       Intent = "none"
)

// Operational 是否为会改变库存/订单状态的操作类意图。
func (i Intent) Operational() bool {
	switch i {
	case IntentNone, IntentQuery, "":
		return false
	}
	return true
}

// Classification 模型给出的初步分类。
type Classification struct {
	IntentType      string `json:"intent_type"`
	Risk            string `json:"risk"` // low | medium | high
	TimeSensitivity string `json:"time_sensitivity,omitempty"`
}

// CheckItem 单维度系统检查结果。
type CheckItem struct {
	Status  string `json:"status"` // ok | warning | alert | unauthorized
	Message string `json:"message,omitempty"`
}

// SystemChecks 库存/容量/交期/权限四个维度的检查。
type SystemChecks struct {
	Stock       CheckItem `json:"stock"`
	Capacity    CheckItem `json:"capacity"`
	LeadTime    CheckItem `json:"lead_time"`
	Permissions CheckItem `json:"permissions"`
}

// ActionParams 单个动作的参数。id 在草稿阶段允许为空，执行前必须解析。
type ActionParams struct {
	ProductID         *int    `json:"product_id"`
	SourceWarehouseID *int    `json:"source_warehouse_id"`
	TargetWarehouseID *int    `json:"target_warehouse_id"`
	SupplierID        *int    `json:"supplier_id"`
	PurchaseOrderID   *int    `json:"purchase_order_id"`
	Quantity          int     `json:"quantity"`
	Price             float64 `json:"price"`
}

// PlanStep 多步计划中的一步（例如大单拆仓）。
type PlanStep struct {
	Intent Intent       `json:"intent"`
	Params ActionParams `json:"params"`
	SQL    string       `json:"sql,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// IntentDocument 合成器输出的完整意图文档。
type IntentDocument struct {
	Intent            Intent          `json:"intent"`
	Classification    *Classification `json:"classification,omitempty"`
	SystemChecks      *SystemChecks   `json:"system_checks,omitempty"`
	Plan              []PlanStep      `json:"plan,omitempty"`
	Params            *ActionParams   `json:"params,omitempty"`
	SQL               string          `json:"sql,omitempty"`
	Message           string          `json:"message"`
	IsSplitSuggestion bool            `json:"is_split_suggestion,omitempty"`
}

// HighRisk 拦截后的文档是否属于高风险。
func (d *IntentDocument) HighRisk() bool {
	return d.Classification != nil && d.Classification.Risk == "high"
}

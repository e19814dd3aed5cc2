package service

import (
	"regexp"
	"strings"

	"smart-inventory/internal/model"
)

// 权限拦截器：对合成器的提案独立复核，完全不看模型自己声称的权限结论。
// 所有路径（执行、审计、返回给前端）都必须先经过这里。

// Verdict 拦截结果。
type Verdict struct {
	Authorized bool
	Reason     string
}

var manipulationKeywords = map[string]bool{
	"INSERT": true, "UPDATE": true, "DELETE": true,
	"ALTER": true, "DROP": true, "CREATE": true, "TRUNCATE": true,
}

// LeadingKeyword 返回语句首关键词（大写）。
func LeadingKeyword(sql string) string {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// IsManipulation 按首关键词判断是否为写语句。
func IsManipulation(sql string) bool {
	return manipulationKeywords[LeadingKeyword(sql)]
}

// 操作类动词的词面兜底，防止"只读语句+操作意图"从结构检查漏过去。
// 英文按词边界，中文按子串。
var opVerbPattern = regexp.MustCompile(`(?i)\b(order|move|transfer|cancel|adjust|ship|split|optimize|restock)\b`)

var opVerbsCN = []string{
	"订购", "下单", "采购", "调拨", "转移", "移库", "取消", "调整", "发货", "拆分", "补货", "入库", "出库",
}

func containsOperationalVerb(text string) bool {
	if opVerbPattern.MatchString(text) {
		return true
	}
	for _, v := range opVerbsCN {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}

const (
	refusalReadOnly = "您当前是销售代表角色，仅支持只读数据查询，无权执行库存或订单操作。"
	refusalManaged  = "下单和取消采购单需要经理及以上角色授权，仓库员工无权执行该操作。"
	refusalDefault  = "当前角色无权执行该操作。"
)

// Intercept 对意图文档做服务端权限裁决，返回裁决后的文档。
// 纯函数：同样的 (role, doc, rawText) 永远得到同样的结果，重复应用结果不变。
func Intercept(role model.Role, doc *model.IntentDocument, rawText string) (*model.IntentDocument, Verdict) {
	switch role {
	case model.RoleManager, model.RoleAdmin:
		return doc, Verdict{Authorized: true}
	case model.RoleWarehouseStaff:
		return interceptWarehouseStaff(doc)
	default:
		// 未知角色按最低权限处理
		return interceptSalesRep(doc, rawText)
	}
}

func interceptSalesRep(doc *model.IntentDocument, rawText string) (*model.IntentDocument, Verdict) {
	v := salesRepVerdict(doc, rawText)
	if v.Authorized {
		return doc, v
	}
	return denySalesRep(doc), v
}

func salesRepVerdict(doc *model.IntentDocument, rawText string) Verdict {
	if doc.Intent != model.IntentQuery && doc.Intent != model.IntentNone {
		return Verdict{Reason: "non-query intent " + string(doc.Intent)}
	}
	if doc.SQL != "" && IsManipulation(doc.SQL) {
		return Verdict{Reason: "manipulation statement"}
	}
	if doc.IsSplitSuggestion {
		return Verdict{Reason: "split suggestion"}
	}
	for _, step := range doc.Plan {
		if step.Intent != model.IntentQuery {
			return Verdict{Reason: "non-query plan step " + string(step.Intent)}
		}
		if step.SQL != "" && IsManipulation(step.SQL) {
			return Verdict{Reason: "manipulation statement in plan"}
		}
	}
	if containsOperationalVerb(rawText) {
		return Verdict{Reason: "operational verb in request text"}
	}
	return Verdict{Authorized: true}
}

func interceptWarehouseStaff(doc *model.IntentDocument) (*model.IntentDocument, Verdict) {
	check := func(intent model.Intent, sql string) string {
		switch intent {
		case model.IntentOrder, model.IntentCancel:
			return "management-only intent " + string(intent)
		case model.IntentMove, model.IntentReceive, model.IntentAdjustment,
			model.IntentQuery, model.IntentNone, model.IntentPlan:
		default:
			return "unknown intent " + string(intent)
		}
		// 采购单表的写操作等价于 order/cancel，不看模型给的标签
		if IsManipulation(sql) && strings.Contains(strings.ToLower(sql), "purchase_orders") {
			return "manipulation on purchase_orders"
		}
		return ""
	}

	if reason := check(doc.Intent, doc.SQL); reason != "" {
		return denyWarehouseStaff(doc, reason), Verdict{Reason: reason}
	}
	for _, step := range doc.Plan {
		if reason := check(step.Intent, step.SQL); reason != "" {
			return denyWarehouseStaff(doc, reason), Verdict{Reason: reason}
		}
	}
	return doc, Verdict{Authorized: true}
}

// denyBase 统一的拒绝改写：意图归零、清空可执行内容、风险置高。
func denyBase(doc *model.IntentDocument, message string) *model.IntentDocument {
	out := *doc
	out.Intent = model.IntentNone
	out.Plan = nil
	out.SQL = ""
	out.Params = nil
	out.IsSplitSuggestion = false
	out.Message = message
	ts := ""
	if doc.Classification != nil {
		ts = doc.Classification.TimeSensitivity
	}
	out.Classification = &model.Classification{IntentType: "view", Risk: "high", TimeSensitivity: ts}
	return &out
}

func denySalesRep(doc *model.IntentDocument) *model.IntentDocument {
	out := denyBase(doc, refusalReadOnly)
	// 最低权限角色连分析结果都不该看到
	out.SystemChecks = nil
	return out
}

func denyWarehouseStaff(doc *model.IntentDocument, reason string) *model.IntentDocument {
	msg := refusalDefault
	if strings.Contains(reason, "management-only") || strings.Contains(reason, "purchase_orders") {
		msg = refusalManaged
	}
	out := denyBase(doc, msg)
	checks := model.SystemChecks{}
	if doc.SystemChecks != nil {
		checks = *doc.SystemChecks
	}
	checks.Permissions = model.CheckItem{Status: "unauthorized", Message: msg}
	out.SystemChecks = &checks
	return out
}

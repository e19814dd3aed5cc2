package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smart-inventory/internal/model"
)

// ErrParse 模型返回了内容但无法解析成意图文档。调用方提示用户重试，绝不执行任何语句。
var ErrParse = errors.New("intent parse failed")

type AIService struct {
	baseURL string
	apiKey  string
	llmodel string
	client  *http.Client
}

func NewAIService(baseURL, apiKey, llmodel string) *AIService {
	return &AIService{baseURL: baseURL, apiKey: apiKey, llmodel: llmodel, client: &http.Client{}}
}

func (s *AIService) doChat(ctx context.Context, system, user string) (string, error) {
	body := map[string]interface{}{
		"model":  s.llmodel,
		"stream": false,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, data)
	}

	data, _ := io.ReadAll(resp.Body)
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return result.Choices[0].Message.Content, nil
}

// Synthesize 把用户请求合成为意图文档。
// 模型给出的 permissions 检查只是参考，真正的权限裁决在拦截器。
func (s *AIService) Synthesize(ctx context.Context, text string, role model.Role, snap *Snapshot) (*model.IntentDocument, error) {
	system := buildSystemPrompt(role, snap)
	content, err := s.doChat(ctx, system, text)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	doc, err := ParseIntentDocument(content)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseIntentDocument 剥掉可能的 markdown 代码块包装后解析意图文档。
func ParseIntentDocument(content string) (*model.IntentDocument, error) {
	raw := StripCodeFence(content)
	var doc model.IntentDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Intent == "" {
		return nil, fmt.Errorf("%w: missing intent", ErrParse)
	}
	// none 意图不得携带任何可执行内容，模型多给的一律丢弃
	if doc.Intent == model.IntentNone {
		doc.Plan = nil
		doc.SQL = ""
		doc.Params = nil
		doc.IsSplitSuggestion = false
	}
	return &doc, nil
}

// StripCodeFence 去掉 ```json ... ``` 或 ``` ... ``` 包装。
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

const schemaDescription = `数据库表（PostgreSQL）：
products(id, name, sku, price, category)
warehouses(id, name, location, capacity)
suppliers(id, name, lead_time)
purchase_orders(id, supplier_id, product_id, warehouse_id, quantity, price, status, bill_url, created_by, created_at)
inventory(id, product_id, warehouse_id, quantity)
transactions(id, type, product_id, source_warehouse, target_warehouse, quantity, created_by, created_at)`

const accessRules = `角色权限（仅供你初判，最终由服务端裁决）：
- sales_representative：只读查询，不允许任何库存/订单操作
- warehouse_staff：可执行 move / receive / adjustment，不允许 order / cancel
- manager、admin：全部操作`

const outputShape = `只返回一个 JSON 对象，不要其他文字，结构：
{
  "intent": "plan|move|order|adjustment|receive|cancel|query|none",
  "classification": {"intent_type": "...", "risk": "low|medium|high", "time_sensitivity": "..."},
  "system_checks": {
    "stock": {"status": "ok|warning|alert", "message": ""},
    "capacity": {"status": "ok|warning|alert", "message": ""},
    "lead_time": {"status": "ok|warning|alert", "message": ""},
    "permissions": {"status": "ok|warning|alert", "message": ""}
  },
  "plan": [{"intent": "...", "params": {"product_id": null, "source_warehouse_id": null, "target_warehouse_id": null, "supplier_id": null, "purchase_order_id": null, "quantity": 0, "price": 0}, "sql": "", "reason": ""}],
  "params": {...同上...},
  "sql": "",
  "message": "给用户看的说明",
  "is_split_suggestion": false
}
规则：
- 只有单仓容量不够需要拆分等多步场景才给 plan，并把 intent 设为 plan、is_split_suggestion 设为 true，各步数量之和等于请求数量
- intent 为 none 时不得携带 plan / sql / params
- 数量异常大、金额（数量×单价）异常高时 risk 给 high 并在 message 说明
- 语句中代表当前用户的位置写 {{current_user}}；创建采购单需要票据地址时写 {{bill_url}}
- 实体名称按参考数据对齐成 id，对不上的保留 null`

func buildSystemPrompt(role model.Role, snap *Snapshot) string {
	var sb strings.Builder
	sb.WriteString("你是仓储库存助手，把用户的自然语言请求转成结构化意图。\n\n")
	sb.WriteString(schemaDescription)
	sb.WriteString("\n\n")
	sb.WriteString(accessRules)
	fmt.Fprintf(&sb, "\n\n当前用户角色：%s\n\n", role)
	sb.WriteString("参考数据：\n")
	sb.WriteString(snap.Render())
	sb.WriteString("\n")
	sb.WriteString(outputShape)
	return sb.String()
}

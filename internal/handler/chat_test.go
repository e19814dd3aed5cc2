package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"smart-inventory/internal/model"
	"smart-inventory/internal/service"

	"github.com/gin-gonic/gin"
)

func chatRouter(synth Synthesizer, role model.Role, audit *fakeAudit) *gin.Engine {
	h := NewChatHandler(synth, fakeRole{role: role}, fakeSnap{}, audit)
	return testRouter(func(api *gin.RouterGroup) {
		api.POST("/chat", h.Chat)
	})
}

func decodeDoc(t *testing.T, body []byte) *model.IntentDocument {
	t.Helper()
	var doc model.IntentDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode intent document: %v", err)
	}
	return &doc
}

func TestChatBadRequest(t *testing.T) {
	r := chatRouter(fakeSynth{}, model.RoleManager, &fakeAudit{})
	w := doJSON(t, r, "POST", "/api/chat", `{"nope": true}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatLLMNotConfigured(t *testing.T) {
	r := chatRouter(nil, model.RoleManager, &fakeAudit{})
	w := doJSON(t, r, "POST", "/api/chat", `{"message": "hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestChatSalesRepQueryFlow(t *testing.T) {
	synth := fakeSynth{doc: &model.IntentDocument{
		Intent:         model.IntentQuery,
		SQL:            "SELECT * FROM warehouses",
		Classification: &model.Classification{IntentType: "query", Risk: "low"},
		SystemChecks:   &model.SystemChecks{Permissions: model.CheckItem{Status: "ok"}},
		Message:        "为您查询全部仓库",
	}}
	audit := &fakeAudit{}
	r := chatRouter(synth, model.RoleSalesRep, audit)

	w := doJSON(t, r, "POST", "/api/chat", `{"message": "show me all warehouses"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	doc := decodeDoc(t, w.Body.Bytes())
	if doc.Intent != model.IntentQuery || doc.SQL == "" {
		t.Errorf("query should pass through: intent=%s sql=%q", doc.Intent, doc.SQL)
	}
	if doc.SystemChecks == nil {
		t.Error("system_checks should be present")
	}
	if doc.HighRisk() {
		t.Error("risk should not be forced high")
	}
	if len(audit.records) != 0 {
		t.Errorf("low-risk query should not be audited, got %d records", len(audit.records))
	}
}

func TestChatSalesRepOrderDenied(t *testing.T) {
	synth := fakeSynth{doc: &model.IntentDocument{
		Intent:         model.IntentOrder,
		SQL:            "INSERT INTO purchase_orders (product_id, quantity) VALUES (3, 50)",
		Classification: &model.Classification{IntentType: "order", Risk: "medium"},
		SystemChecks:   &model.SystemChecks{Permissions: model.CheckItem{Status: "ok", Message: "模型以为可以"}},
		Params:         &model.ActionParams{Quantity: 50, Price: 12},
		Message:        "将为您下单",
	}}
	audit := &fakeAudit{}
	r := chatRouter(synth, model.RoleSalesRep, audit)

	w := doJSON(t, r, "POST", "/api/chat", `{"message": "order 50 units of product 3"}`)
	doc := decodeDoc(t, w.Body.Bytes())

	if doc.Intent != model.IntentNone || doc.SQL != "" {
		t.Errorf("denied doc not cleared: intent=%s sql=%q", doc.Intent, doc.SQL)
	}
	if doc.SystemChecks != nil {
		t.Error("system_checks must be absent on sales rep denial")
	}
	if doc.Classification == nil || doc.Classification.Risk != "high" {
		t.Error("risk must be forced high")
	}

	// 被拒绝的高风险尝试本身就要进审计，且带用户原话
	if len(audit.records) != 1 {
		t.Fatalf("audit records = %d, want 1", len(audit.records))
	}
	rec := audit.records[0]
	if rec.rawText != "order 50 units of product 3" {
		t.Errorf("trigger message = %q, want verbatim user text", rec.rawText)
	}
	if rec.verdict.Authorized {
		t.Error("audit should carry the denial verdict")
	}
}

func TestChatWarehouseStaffCancelDenied(t *testing.T) {
	synth := fakeSynth{doc: &model.IntentDocument{
		Intent:         model.IntentCancel,
		SQL:            "UPDATE purchase_orders SET status = 'cancelled' WHERE id = 12",
		Classification: &model.Classification{IntentType: "cancel", Risk: "medium"},
		SystemChecks:   &model.SystemChecks{Permissions: model.CheckItem{Status: "ok"}},
		Message:        "将为您取消采购单12",
	}}
	audit := &fakeAudit{}
	r := chatRouter(synth, model.RoleWarehouseStaff, audit)

	w := doJSON(t, r, "POST", "/api/chat", `{"message": "取消采购单12"}`)
	doc := decodeDoc(t, w.Body.Bytes())

	if doc.Intent != model.IntentNone {
		t.Errorf("intent = %s, want none", doc.Intent)
	}
	if doc.SystemChecks == nil || doc.SystemChecks.Permissions.Status != "unauthorized" {
		t.Error("permissions status should be unauthorized")
	}
	if len(audit.records) != 1 {
		t.Fatalf("denied cancel must still be audited")
	}
}

func TestChatManagerManipulationReturnsProposalOnly(t *testing.T) {
	sql := "UPDATE inventory SET quantity = quantity + 100 WHERE product_id = 5 AND warehouse_id = 2"
	synth := fakeSynth{doc: &model.IntentDocument{
		Intent:         model.IntentAdjustment,
		SQL:            sql,
		Classification: &model.Classification{IntentType: "adjustment", Risk: "medium"},
		SystemChecks:   &model.SystemChecks{Permissions: model.CheckItem{Status: "ok"}},
		Params:         &model.ActionParams{Quantity: 100},
		Message:        "将为仓2的产品5增加100件库存，请确认",
	}}
	audit := &fakeAudit{}
	r := chatRouter(synth, model.RoleManager, audit)

	w := doJSON(t, r, "POST", "/api/chat", `{"message": "increase stock of product 5 by 100 units at warehouse 2"}`)
	doc := decodeDoc(t, w.Body.Bytes())

	// chat 端点只给出提案语句，任何持久化改动都要走 preview + execute 两步
	if doc.SQL != sql {
		t.Errorf("proposed statement should be returned for confirmation, got %q", doc.SQL)
	}
	if doc.Intent != model.IntentAdjustment {
		t.Errorf("intent = %s", doc.Intent)
	}
	if len(audit.records) != 1 {
		t.Error("operational intent should be audited")
	}
}

func TestChatBillURLResolvedIntoProposal(t *testing.T) {
	synth := fakeSynth{doc: &model.IntentDocument{
		Intent:         model.IntentOrder,
		SQL:            "INSERT INTO purchase_orders (product_id, quantity, bill_url) VALUES (3, 50, '{{bill_url}}')",
		Classification: &model.Classification{IntentType: "order", Risk: "medium"},
		Message:        "将创建采购单，请确认",
	}}
	r := chatRouter(synth, model.RoleManager, &fakeAudit{})

	w := doJSON(t, r, "POST", "/api/chat",
		`{"message": "order 50 units of product 3", "billUrl": "https://files.example.com/bill-7.pdf"}`)
	doc := decodeDoc(t, w.Body.Bytes())
	if strings.Contains(doc.SQL, "{{bill_url}}") {
		t.Error("bill placeholder should be resolved when the artifact address is known")
	}
	if !strings.Contains(doc.SQL, "bill-7.pdf") {
		t.Errorf("bill url missing from proposal: %s", doc.SQL)
	}
}

func TestChatParseFailure(t *testing.T) {
	synth := fakeSynth{err: fmt.Errorf("%w: not json", service.ErrParse)}
	audit := &fakeAudit{}
	r := chatRouter(synth, model.RoleManager, audit)

	w := doJSON(t, r, "POST", "/api/chat", `{"message": "asdfgh"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp model.ChatError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "parse_error" || resp.Explanation == "" {
		t.Errorf("parse failure should surface a retry message, got %+v", resp)
	}
	if len(audit.records) != 0 {
		t.Error("nothing should be audited on parse failure")
	}
}

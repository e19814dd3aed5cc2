package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"smart-inventory/internal/model"
	"smart-inventory/internal/service"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

// --- fakes ---

type fakeRole struct{ role model.Role }

func (f fakeRole) Resolve(ctx context.Context, memberID int) model.Role  { return f.role }
func (f fakeRole) Assigned(ctx context.Context, memberID int) model.Role { return f.role }
func (f fakeRole) SetSessionRole(ctx context.Context, memberID int, r model.Role) error {
	if r.Level() > f.role.Level() {
		return errExceeds
	}
	return nil
}

var errExceeds = &roleError{"role exceeds assigned role"}

type roleError struct{ msg string }

func (e *roleError) Error() string { return e.msg }

type fakeSynth struct {
	doc *model.IntentDocument
	err error
}

func (f fakeSynth) Synthesize(ctx context.Context, text string, role model.Role, snap *service.Snapshot) (*model.IntentDocument, error) {
	return f.doc, f.err
}

type fakeSnap struct{}

func (fakeSnap) Load(ctx context.Context) (*service.Snapshot, error) { return &service.Snapshot{}, nil }

type auditRecord struct {
	doc     *model.IntentDocument
	rawText string
	verdict service.Verdict
}

type fakeAudit struct {
	mu      sync.Mutex
	records []auditRecord
}

func (f *fakeAudit) Record(doc *model.IntentDocument, rawText string, role model.Role, user, requestID string, v service.Verdict) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, auditRecord{doc: doc, rawText: rawText, verdict: v})
}

type fakeExec struct {
	rows     []map[string]interface{}
	affected int64
	err      error

	mu        sync.Mutex
	previewed []string
	executed  []string
}

func (f *fakeExec) Preview(ctx context.Context, sql string) ([]map[string]interface{}, int64, error) {
	f.mu.Lock()
	f.previewed = append(f.previewed, sql)
	f.mu.Unlock()
	return f.rows, f.affected, f.err
}

func (f *fakeExec) Execute(ctx context.Context, sql string) ([]map[string]interface{}, int64, error) {
	f.mu.Lock()
	f.executed = append(f.executed, sql)
	f.mu.Unlock()
	return f.rows, f.affected, f.err
}

// --- helpers ---

func testRouter(register func(api *gin.RouterGroup)) *gin.Engine {
	r := gin.New()
	api := r.Group("/api", func(c *gin.Context) {
		c.Set("user_id", 7)
		c.Set("user_name", "张伟")
		c.Set("request_id", "test-rid")
	})
	register(api)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

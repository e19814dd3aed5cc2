package handler

import (
	"context"

	"smart-inventory/internal/model"
	"smart-inventory/internal/service"
)

// 各 handler 按自己的需要声明依赖接口，具体实现都在 service 包。

// Synthesizer 把用户文本合成为意图文档提案。
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, role model.Role, snap *service.Snapshot) (*model.IntentDocument, error)
}

// SnapshotLoader 加载参考数据快照。
type SnapshotLoader interface {
	Load(ctx context.Context) (*service.Snapshot, error)
}

// RoleResolver 解析请求主体的生效角色。
type RoleResolver interface {
	Resolve(ctx context.Context, memberID int) model.Role
	Assigned(ctx context.Context, memberID int) model.Role
	SetSessionRole(ctx context.Context, memberID int, r model.Role) error
}

// Recorder 异步写风险审计记录。
type Recorder interface {
	Record(doc *model.IntentDocument, rawText string, role model.Role, user, requestID string, v service.Verdict)
}

// Executor 预览/执行语句。
type Executor interface {
	Preview(ctx context.Context, sql string) ([]map[string]interface{}, int64, error)
	Execute(ctx context.Context, sql string) ([]map[string]interface{}, int64, error)
}

package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// ExecService 执行中介：写语句先在回滚事务里试跑出预览，确认后才真正执行。
type ExecService struct{ db *gorm.DB }

func NewExecService(db *gorm.DB) *ExecService { return &ExecService{db: db} }

// 模型生成的语句只允许触达业务表；审计表和会话表不对外。
var allowedTables = map[string]bool{
	"products":        true,
	"warehouses":      true,
	"suppliers":       true,
	"purchase_orders": true,
	"inventory":       true,
	"transactions":    true,
}

var tableRefPattern = regexp.MustCompile(`(?i)\b(?:from|join|into|update|truncate(?:\s+table)?|table|sequence|index)\s+("?)([a-zA-Z_][a-zA-Z0-9_]*)("?)`)

var placeholderPattern = regexp.MustCompile(`\{\{\s*[a-zA-Z_]+\s*\}\}`)

// ValidateStatement 单语句、无注释、所有表名在白名单内，否则拒绝。
func ValidateStatement(sql string) error {
	s := strings.TrimSpace(sql)
	if s == "" {
		return fmt.Errorf("empty statement")
	}
	if strings.Contains(s, "--") || strings.Contains(s, "/*") {
		return fmt.Errorf("comments not allowed in statement")
	}
	if i := strings.Index(s, ";"); i >= 0 && i != len(s)-1 {
		return fmt.Errorf("multiple statements not allowed")
	}
	for _, m := range tableRefPattern.FindAllStringSubmatch(s, -1) {
		table := strings.ToLower(m[2])
		if !allowedTables[table] {
			return fmt.Errorf("table %q not allowed", table)
		}
	}
	return nil
}

// ResolvePlaceholders 解析占位符：{{current_user}} 用调用方身份，{{bill_url}} 用已上传票据地址。
// 同样的输入永远产出同样的语句；有占位符没解析掉就直接失败，绝不带着占位符执行。
func ResolvePlaceholders(sql, userName, billURL string) (string, error) {
	quote := func(v string) string { return strings.ReplaceAll(v, "'", "''") }
	out := strings.ReplaceAll(sql, "{{current_user}}", quote(userName))
	if billURL != "" {
		out = strings.ReplaceAll(out, "{{bill_url}}", quote(billURL))
	}
	if m := placeholderPattern.FindString(out); m != "" {
		return "", fmt.Errorf("unresolved placeholder %s", m)
	}
	return out, nil
}

// Preview 在事务里试跑语句并一律回滚，返回结果集和影响行数，零持久化影响。
func (s *ExecService) Preview(ctx context.Context, sql string) ([]map[string]interface{}, int64, error) {
	if err := ValidateStatement(sql); err != nil {
		return nil, 0, err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, 0, fmt.Errorf("begin preview tx: %w", tx.Error)
	}
	defer tx.Rollback()

	if IsManipulation(sql) {
		res := tx.Exec(sql)
		if res.Error != nil {
			return nil, 0, res.Error
		}
		return nil, res.RowsAffected, nil
	}

	var rows []map[string]interface{}
	if err := tx.Raw(sql).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, int64(len(rows)), nil
}

// Execute 真正执行已确认的语句。
// 写语句影响 0 行按软失败返回（通常是名称/编号没对上）。
func (s *ExecService) Execute(ctx context.Context, sql string) ([]map[string]interface{}, int64, error) {
	if err := ValidateStatement(sql); err != nil {
		return nil, 0, err
	}

	db := s.db.WithContext(ctx)
	if IsManipulation(sql) {
		res := db.Exec(sql)
		if res.Error != nil {
			return nil, 0, res.Error
		}
		return nil, res.RowsAffected, nil
	}

	var rows []map[string]interface{}
	if err := db.Raw(sql).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, int64(len(rows)), nil
}

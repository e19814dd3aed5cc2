package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smart-inventory/internal/model"

	"gorm.io/gorm"
)

// RoleService 把登录主体解析为系统内唯一的标准角色。
// 解析顺序：会话降级角色 → 成员表角色字段 → 职务名归一化 → 兜底。
type RoleService struct{ db *gorm.DB }

func NewRoleService(db *gorm.DB) *RoleService { return &RoleService{db: db} }

// 职务名 → 标准角色的固定归一化表，全小写比对。
var orgRoleTable = map[string]model.Role{
	"admin":             model.RoleAdmin,
	"administrator":     model.RoleAdmin,
	"系统管理员":             model.RoleAdmin,
	"管理员":               model.RoleAdmin,
	"manager":           model.RoleManager,
	"warehouse manager": model.RoleManager,
	"仓库经理":              model.RoleManager,
	"主管":                model.RoleManager,
	"warehouse staff":   model.RoleWarehouseStaff,
	"warehouse worker":  model.RoleWarehouseStaff,
	"仓库员工":              model.RoleWarehouseStaff,
	"仓管员":               model.RoleWarehouseStaff,
	"sales":             model.RoleSalesRep,
	"sales rep":         model.RoleSalesRep,
	"销售":                model.RoleSalesRep,
	"销售代表":              model.RoleSalesRep,
}

// NormalizeOrgRole 按固定表归一化职务名；未命中返回最低权限角色。
func NormalizeOrgRole(name string) model.Role {
	if r, ok := orgRoleTable[strings.ToLower(strings.TrimSpace(name))]; ok {
		return r
	}
	return model.RoleSalesRep
}

// ClampSessionRole 会话角色只允许 ≤ 所属角色，非法或越权一律压回所属角色。
func ClampSessionRole(session, assigned model.Role) model.Role {
	if !session.Valid() || session.Level() > assigned.Level() {
		return assigned
	}
	return session
}

// Assigned 返回成员的所属角色（上限）。无记录时按界面默认给仓库员工。
func (s *RoleService) Assigned(ctx context.Context, memberID int) model.Role {
	var m model.Member
	err := s.db.WithContext(ctx).First(&m, memberID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.RoleWarehouseStaff
	}
	if err != nil {
		// 查库失败按最低权限处理
		return model.RoleSalesRep
	}
	if r, ok := model.ParseRole(m.Role); ok {
		return r
	}
	return NormalizeOrgRole(m.OrgRole)
}

// Resolve 返回本次请求生效的角色，纯查询，可重复调用。
func (s *RoleService) Resolve(ctx context.Context, memberID int) model.Role {
	assigned := s.Assigned(ctx, memberID)

	var sr model.SessionRole
	err := s.db.WithContext(ctx).First(&sr, "member_id = ?", memberID).Error
	if err != nil {
		return assigned
	}
	session, ok := model.ParseRole(sr.Role)
	if !ok {
		return assigned
	}
	return ClampSessionRole(session, assigned)
}

// SetSessionRole 写入会话降级角色；只允许选择不高于所属角色的角色。
func (s *RoleService) SetSessionRole(ctx context.Context, memberID int, r model.Role) error {
	if !r.Valid() {
		return fmt.Errorf("unknown role %q", r)
	}
	assigned := s.Assigned(ctx, memberID)
	if r.Level() > assigned.Level() {
		return fmt.Errorf("role %s exceeds assigned role %s", r, assigned)
	}
	sr := model.SessionRole{MemberID: memberID, Role: string(r)}
	return s.db.WithContext(ctx).Save(&sr).Error
}

package model

// Role 角色层级，数值越大权限越高。
type Role string

const (
	RoleSalesRep       Role = "sales_representative"
	RoleWarehouseStaff Role = "warehouse_staff"
	RoleManager        Role = "manager"
	RoleAdmin          Role = "admin"
)

var roleLevels = map[Role]int{
	RoleSalesRep:       1,
	RoleWarehouseStaff: 2,
	RoleManager:        3,
	RoleAdmin:          4,
}

// Level returns the privilege level, 0 for unknown roles.
func (r Role) Level() int { return roleLevels[r] }

// Valid reports whether r is one of the four canonical roles.
func (r Role) Valid() bool { return roleLevels[r] != 0 }

// AtLeast reports whether r holds at least the privilege of other.
func (r Role) AtLeast(other Role) bool { return r.Level() >= other.Level() }

// ParseRole 把任意角色字符串归一化为四个标准角色之一。
// 未识别的名称返回 false，由调用方决定兜底角色（宁可少给权限）。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if r.Valid() {
		return r, true
	}
	return "", false
}

package model

import "time"

type Member struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Username string `gorm:"uniqueIndex" json:"username"`
	Password string `json:"-"`
	Name     string `json:"name"`
	Role     string `json:"role"`     // 标准角色，可能为空
	OrgRole  string `json:"org_role"` // 组织内职务名，如 "Warehouse Manager"
	Team     string `json:"team"`
}

// SessionRole 本会话内主动降级后的角色，服务端校验 ≤ 所属角色后才写入。
type SessionRole struct {
	MemberID  int       `gorm:"primaryKey" json:"member_id"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Product struct {
	ID       int     `gorm:"primaryKey" json:"id"`
	Name     string  `json:"name"`
	SKU      string  `gorm:"uniqueIndex" json:"sku"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type Warehouse struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

type Supplier struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Name     string `json:"name"`
	LeadTime int    `json:"lead_time_days"`
}

type PurchaseOrder struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	SupplierID  int       `json:"supplier_id"`
	ProductID   int       `json:"product_id"`
	WarehouseID int       `json:"warehouse_id"`
	Quantity    int       `json:"quantity"`
	Price       float64   `json:"price"`
	Status      string    `gorm:"default:open" json:"status"` // open | received | cancelled
	BillURL     string    `json:"bill_url"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type Inventory struct {
	ID          int `gorm:"primaryKey" json:"id"`
	ProductID   int `gorm:"uniqueIndex:uk_product_warehouse" json:"product_id"`
	WarehouseID int `gorm:"uniqueIndex:uk_product_warehouse" json:"warehouse_id"`
	Quantity    int `json:"quantity"`
}

type Transaction struct {
	ID              int       `gorm:"primaryKey" json:"id"`
	Type            string    `json:"type"` // move | receive | adjustment | order | cancel
	ProductID       int       `json:"product_id"`
	SourceWarehouse *int      `json:"source_warehouse_id"`
	TargetWarehouse *int      `json:"target_warehouse_id"`
	Quantity        int       `json:"quantity"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// RiskAlert 风险审计记录：高风险或操作类意图一律落库，含被拒绝的尝试。
type RiskAlert struct {
	ID             int       `gorm:"primaryKey" json:"id"`
	TriggerMessage string    `json:"trigger_message"` // 用户原话
	RiskScore      int       `json:"risk_score"`
	Reason         string    `json:"reason"`
	Metadata       string    `gorm:"type:text" json:"metadata"`  // JSON：分类、金额敞口、计划、会话上下文
	Status         string    `gorm:"default:open" json:"status"` // open | resolved
	ResolvedBy     string    `json:"resolved_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Member) TableName() string        { return "members" }
func (SessionRole) TableName() string   { return "session_roles" }
func (Product) TableName() string       { return "products" }
func (Warehouse) TableName() string     { return "warehouses" }
func (Supplier) TableName() string      { return "suppliers" }
func (PurchaseOrder) TableName() string { return "purchase_orders" }
func (Inventory) TableName() string     { return "inventory" }
func (Transaction) TableName() string   { return "transactions" }
func (RiskAlert) TableName() string     { return "risk_alerts" }

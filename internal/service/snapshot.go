package service

import (
	"context"
	"fmt"
	"strings"

	"smart-inventory/internal/model"

	"gorm.io/gorm"
)

// SnapshotService 读取给模型做实体对齐用的参考数据快照。
// 每类数据有固定行数上限，控制提示词长度。
type SnapshotService struct{ db *gorm.DB }

func NewSnapshotService(db *gorm.DB) *SnapshotService { return &SnapshotService{db: db} }

const (
	maxProducts     = 100
	maxWarehouses   = 20
	maxSuppliers    = 20
	maxOpenOrders   = 50
	maxTransactions = 20
	maxStockRows    = 100
)

type Snapshot struct {
	Products     []model.Product
	Warehouses   []model.Warehouse
	Suppliers    []model.Supplier
	OpenOrders   []model.PurchaseOrder
	Transactions []model.Transaction
	Stock        []model.Inventory
}

func (s *SnapshotService) Load(ctx context.Context) (*Snapshot, error) {
	db := s.db.WithContext(ctx)
	snap := &Snapshot{}

	if err := db.Limit(maxProducts).Find(&snap.Products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if err := db.Limit(maxWarehouses).Find(&snap.Warehouses).Error; err != nil {
		return nil, fmt.Errorf("load warehouses: %w", err)
	}
	if err := db.Limit(maxSuppliers).Find(&snap.Suppliers).Error; err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}
	if err := db.Where("status = ?", "open").Limit(maxOpenOrders).Find(&snap.OpenOrders).Error; err != nil {
		return nil, fmt.Errorf("load open orders: %w", err)
	}
	if err := db.Order("created_at DESC").Limit(maxTransactions).Find(&snap.Transactions).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if err := db.Limit(maxStockRows).Find(&snap.Stock).Error; err != nil {
		return nil, fmt.Errorf("load stock: %w", err)
	}
	return snap, nil
}

// Render 把快照整理成提示词里的纯文本数据块。
func (snap *Snapshot) Render() string {
	var sb strings.Builder

	sb.WriteString("## 产品\n")
	for _, p := range snap.Products {
		fmt.Fprintf(&sb, "id=%d name=%s sku=%s price=%.2f\n", p.ID, p.Name, p.SKU, p.Price)
	}
	sb.WriteString("## 仓库\n")
	for _, w := range snap.Warehouses {
		fmt.Fprintf(&sb, "id=%d name=%s capacity=%d\n", w.ID, w.Name, w.Capacity)
	}
	sb.WriteString("## 供应商\n")
	for _, sp := range snap.Suppliers {
		fmt.Fprintf(&sb, "id=%d name=%s lead_time=%d天\n", sp.ID, sp.Name, sp.LeadTime)
	}
	sb.WriteString("## 未完成采购单\n")
	for _, o := range snap.OpenOrders {
		fmt.Fprintf(&sb, "id=%d supplier=%d product=%d qty=%d price=%.2f\n",
			o.ID, o.SupplierID, o.ProductID, o.Quantity, o.Price)
	}
	sb.WriteString("## 最近流水\n")
	for _, t := range snap.Transactions {
		fmt.Fprintf(&sb, "id=%d type=%s product=%d qty=%d\n", t.ID, t.Type, t.ProductID, t.Quantity)
	}
	sb.WriteString("## 当前库存\n")
	for _, iv := range snap.Stock {
		fmt.Fprintf(&sb, "product=%d warehouse=%d qty=%d\n", iv.ProductID, iv.WarehouseID, iv.Quantity)
	}
	return sb.String()
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/inventory"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	Name      string          `gorm:"type:varchar(200);not null"`
	Reference string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Unit      string          `gorm:"type:varchar(20);not null;default:'pcs'"`
	Quantity  int             `gorm:"not null;default:0"`
	MinStock  int             `gorm:"not null;default:0"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *inventory.Product {
	return &inventory.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Reference:         m.Reference,
		Unit:              m.Unit,
		Quantity:          m.Quantity,
		MinStock:          m.MinStock,
		UnitCost:          m.UnitCost,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *inventory.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Reference = p.Reference
	m.Unit = p.Unit
	m.Quantity = p.Quantity
	m.MinStock = p.MinStock
	m.UnitCost = p.UnitCost
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// LedgerEntryModel is the persistence model for one stock movement. Rows are never updated.
type LedgerEntryModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_ledger_product_created,priority:1"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null"`
	Direction     string     `gorm:"type:varchar(3);not null"`
	Source        string     `gorm:"type:varchar(20);not null;index:idx_ledger_source,priority:1"`
	SourceID      *uuid.UUID `gorm:"type:uuid;index:idx_ledger_source,priority:2"`
	Quantity      int        `gorm:"not null"`
	BalanceBefore int        `gorm:"not null"`
	BalanceAfter  int        `gorm:"not null"`
	CreatedAt     time.Time  `gorm:"not null;index:idx_ledger_product_created,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *inventory.LedgerEntry {
	return &inventory.LedgerEntry{
		ID:            m.ID,
		ProductID:     m.ProductID,
		UserID:        m.UserID,
		Direction:     inventory.Direction(m.Direction),
		Source:        inventory.Source(m.Source),
		SourceID:      m.SourceID,
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		CreatedAt:     m.CreatedAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry.
func LedgerEntryModelFromDomain(e *inventory.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:            e.ID,
		ProductID:     e.ProductID,
		UserID:        e.UserID,
		Direction:     string(e.Direction),
		Source:        string(e.Source),
		SourceID:      e.SourceID,
		Quantity:      e.Quantity,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		CreatedAt:     e.CreatedAt,
	}
}

// StockAdjustmentModel is the persistence model for the StockAdjustment aggregate root.
type StockAdjustmentModel struct {
	AggregateModel
	ApprovalColumns
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Direction string     `gorm:"type:varchar(3);not null"`
	Quantity  int        `gorm:"not null"`
	Reason    string     `gorm:"type:text"`
	AuditID   *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (StockAdjustmentModel) TableName() string {
	return "stock_adjustments"
}

// ToDomain converts the persistence model to a domain StockAdjustment.
func (m *StockAdjustmentModel) ToDomain() *inventory.StockAdjustment {
	adj := &inventory.StockAdjustment{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		Direction:         inventory.Direction(m.Direction),
		Quantity:          m.Quantity,
		Reason:            m.Reason,
		AuditID:           m.AuditID,
	}
	adj.Status = inventory.ApprovalStatus(m.Status)
	adj.RequestedByID = m.RequestedByID
	adj.ApprovedByID = m.ApprovedByID
	adj.DecidedAt = m.DecidedAt
	adj.DecisionComment = m.DecisionComment
	return adj
}

// StockAdjustmentModelFromDomain creates a new persistence model from a domain StockAdjustment.
func StockAdjustmentModelFromDomain(a *inventory.StockAdjustment) *StockAdjustmentModel {
	m := &StockAdjustmentModel{
		ApprovalColumns: ApprovalColumns{
			Status:          string(a.Status),
			RequestedByID:   a.RequestedByID,
			ApprovedByID:    a.ApprovedByID,
			DecidedAt:       a.DecidedAt,
			DecisionComment: a.DecisionComment,
		},
		ProductID: a.ProductID,
		Direction: string(a.Direction),
		Quantity:  a.Quantity,
		Reason:    a.Reason,
		AuditID:   a.AuditID,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// StockReceiptModel is the persistence model for the StockReceipt aggregate root.
type StockReceiptModel struct {
	AggregateModel
	ApprovalColumns
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity     int       `gorm:"not null"`
	SupplierName string    `gorm:"type:varchar(200);not null"`
	BatchNumber  string    `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (StockReceiptModel) TableName() string {
	return "stock_receipts"
}

// ToDomain converts the persistence model to a domain StockReceipt.
func (m *StockReceiptModel) ToDomain() *inventory.StockReceipt {
	receipt := &inventory.StockReceipt{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		Quantity:          m.Quantity,
		SupplierName:      m.SupplierName,
		BatchNumber:       m.BatchNumber,
	}
	receipt.Status = inventory.ApprovalStatus(m.Status)
	receipt.RequestedByID = m.RequestedByID
	receipt.ApprovedByID = m.ApprovedByID
	receipt.DecidedAt = m.DecidedAt
	receipt.DecisionComment = m.DecisionComment
	return receipt
}

// StockReceiptModelFromDomain creates a new persistence model from a domain StockReceipt.
func StockReceiptModelFromDomain(r *inventory.StockReceipt) *StockReceiptModel {
	m := &StockReceiptModel{
		ApprovalColumns: ApprovalColumns{
			Status:          string(r.Status),
			RequestedByID:   r.RequestedByID,
			ApprovedByID:    r.ApprovedByID,
			DecidedAt:       r.DecidedAt,
			DecisionComment: r.DecisionComment,
		},
		ProductID:    r.ProductID,
		Quantity:     r.Quantity,
		SupplierName: r.SupplierName,
		BatchNumber:  r.BatchNumber,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// InventoryAuditModel is the persistence model for the InventoryAudit aggregate root.
type InventoryAuditModel struct {
	AggregateModel
	AuditNumber string    `gorm:"type:varchar(30);not null;uniqueIndex"`
	Status      string    `gorm:"type:varchar(30);not null;index"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null"`
	Note        string    `gorm:"type:text"`
	CompletedAt *time.Time
	ClosedAt    *time.Time
	Items       []InventoryAuditItemModel `gorm:"foreignKey:AuditID;references:ID"`
}

// TableName returns the table name for GORM
func (InventoryAuditModel) TableName() string {
	return "inventory_audits"
}

// ToDomain converts the persistence model to a domain InventoryAudit.
func (m *InventoryAuditModel) ToDomain() *inventory.InventoryAudit {
	audit := &inventory.InventoryAudit{
		BaseAggregateRoot: m.ToAggregateRoot(),
		AuditNumber:       m.AuditNumber,
		Status:            inventory.AuditStatus(m.Status),
		CreatedByID:       m.CreatedByID,
		Note:              m.Note,
		CompletedAt:       m.CompletedAt,
		ClosedAt:          m.ClosedAt,
		Items:             make([]inventory.InventoryAuditItem, len(m.Items)),
	}
	for i, item := range m.Items {
		audit.Items[i] = item.ToDomain()
	}
	return audit
}

// InventoryAuditModelFromDomain creates a new persistence model from a domain InventoryAudit.
func InventoryAuditModelFromDomain(a *inventory.InventoryAudit) *InventoryAuditModel {
	m := &InventoryAuditModel{
		AuditNumber: a.AuditNumber,
		Status:      string(a.Status),
		CreatedByID: a.CreatedByID,
		Note:        a.Note,
		CompletedAt: a.CompletedAt,
		ClosedAt:    a.ClosedAt,
		Items:       make([]InventoryAuditItemModel, len(a.Items)),
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	for i := range a.Items {
		m.Items[i] = InventoryAuditItemModelFromDomain(&a.Items[i])
	}
	return m
}

// InventoryAuditItemModel is one product line of an audit snapshot.
type InventoryAuditItemModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key"`
	AuditID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_audit_item_product,priority:1"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_audit_item_product,priority:2"`
	ProductName     string    `gorm:"type:varchar(200);not null"`
	ProductRef      string    `gorm:"type:varchar(50);not null"`
	SystemQuantity  int       `gorm:"not null"`
	CountedQuantity *int
	Discrepancy     *int
}

// TableName returns the table name for GORM
func (InventoryAuditItemModel) TableName() string {
	return "inventory_audit_items"
}

// ToDomain converts the persistence model to a domain InventoryAuditItem.
func (m *InventoryAuditItemModel) ToDomain() inventory.InventoryAuditItem {
	return inventory.InventoryAuditItem{
		ID:              m.ID,
		AuditID:         m.AuditID,
		ProductID:       m.ProductID,
		ProductName:     m.ProductName,
		ProductRef:      m.ProductRef,
		SystemQuantity:  m.SystemQuantity,
		CountedQuantity: m.CountedQuantity,
		Discrepancy:     m.Discrepancy,
	}
}

// InventoryAuditItemModelFromDomain creates a new persistence model from a domain InventoryAuditItem.
func InventoryAuditItemModelFromDomain(i *inventory.InventoryAuditItem) InventoryAuditItemModel {
	return InventoryAuditItemModel{
		ID:              i.ID,
		AuditID:         i.AuditID,
		ProductID:       i.ProductID,
		ProductName:     i.ProductName,
		ProductRef:      i.ProductRef,
		SystemQuantity:  i.SystemQuantity,
		CountedQuantity: i.CountedQuantity,
		Discrepancy:     i.Discrepancy,
	}
}

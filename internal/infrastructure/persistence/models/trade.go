package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/trade"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber     string     `gorm:"type:varchar(30);not null;uniqueIndex"`
	Supplier        string     `gorm:"type:varchar(200);not null"`
	Note            string     `gorm:"type:text"`
	Status          string     `gorm:"type:varchar(30);not null;index"`
	CreatedByID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ApprovedByID    *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	DecisionComment string `gorm:"type:text"`
	OrderedAt       *time.Time
	ClosedAt        *time.Time
	CancelledAt     *time.Time
	TotalAmount     decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Items           []PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	order := &trade.PurchaseOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		Supplier:          m.Supplier,
		Note:              m.Note,
		Status:            trade.PurchaseOrderStatus(m.Status),
		CreatedByID:       m.CreatedByID,
		ApprovedByID:      m.ApprovedByID,
		ApprovedAt:        m.ApprovedAt,
		DecisionComment:   m.DecisionComment,
		OrderedAt:         m.OrderedAt,
		ClosedAt:          m.ClosedAt,
		CancelledAt:       m.CancelledAt,
		TotalAmount:       m.TotalAmount,
		Items:             make([]trade.PurchaseOrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = item.ToDomain()
	}
	return order
}

// PurchaseOrderModelFromDomain creates a new persistence model from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		OrderNumber:     o.OrderNumber,
		Supplier:        o.Supplier,
		Note:            o.Note,
		Status:          string(o.Status),
		CreatedByID:     o.CreatedByID,
		ApprovedByID:    o.ApprovedByID,
		ApprovedAt:      o.ApprovedAt,
		DecisionComment: o.DecisionComment,
		OrderedAt:       o.OrderedAt,
		ClosedAt:        o.ClosedAt,
		CancelledAt:     o.CancelledAt,
		TotalAmount:     o.TotalAmount,
		Items:           make([]PurchaseOrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i := range o.Items {
		m.Items[i] = PurchaseOrderItemModelFromDomain(&o.Items[i])
	}
	return m
}

// PurchaseOrderItemModel is the persistence model for a purchase order line.
type PurchaseOrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the persistence model to a domain PurchaseOrderItem.
func (m *PurchaseOrderItemModel) ToDomain() trade.PurchaseOrderItem {
	return trade.PurchaseOrderItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Position:  m.Position,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		LineTotal: m.LineTotal,
	}
}

// PurchaseOrderItemModelFromDomain creates a new persistence model from a domain PurchaseOrderItem.
func PurchaseOrderItemModelFromDomain(i *trade.PurchaseOrderItem) PurchaseOrderItemModel {
	return PurchaseOrderItemModel{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Position:  i.Position,
		Quantity:  i.Quantity,
		UnitPrice: i.UnitPrice,
		LineTotal: i.LineTotal,
	}
}

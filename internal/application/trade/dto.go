package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/domain/trade"
)

// ==================== Purchase Order DTOs ====================

// PurchaseOrderInput is the input for creating or editing a purchase order
type PurchaseOrderInput struct {
	Supplier string
	Note     string
	Items    []trade.LineInput
}

// DecisionInput carries the approver's comment
type DecisionInput struct {
	Comment string
}

// ListFilter filters purchase order listings
type ListFilter struct {
	Page     int
	PageSize int
	Status   string
}

// ToFilter converts the list filter to a repository filter
func (f ListFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter.Normalize()
}

// PurchaseOrderItemResponse represents a purchase order item in API responses
type PurchaseOrderItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Position  int             `json:"position"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID              uuid.UUID                   `json:"id"`
	OrderNumber     string                      `json:"order_number"`
	Supplier        string                      `json:"supplier"`
	Note            string                      `json:"note,omitempty"`
	Status          string                      `json:"status"`
	CreatedByID     uuid.UUID                   `json:"created_by_id"`
	ApprovedByID    *uuid.UUID                  `json:"approved_by_id,omitempty"`
	ApprovedAt      *time.Time                  `json:"approved_at,omitempty"`
	DecisionComment string                      `json:"decision_comment,omitempty"`
	OrderedAt       *time.Time                  `json:"ordered_at,omitempty"`
	ClosedAt        *time.Time                  `json:"closed_at,omitempty"`
	CancelledAt     *time.Time                  `json:"cancelled_at,omitempty"`
	TotalAmount     decimal.Decimal             `json:"total_amount"`
	Items           []PurchaseOrderItemResponse `json:"items"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	Version         int                         `json:"version"`
}

// ToPurchaseOrderResponse converts domain PurchaseOrder to PurchaseOrderResponse
func ToPurchaseOrderResponse(order *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = PurchaseOrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Position:  item.Position,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}
	return PurchaseOrderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Supplier:        order.Supplier,
		Note:            order.Note,
		Status:          string(order.Status),
		CreatedByID:     order.CreatedByID,
		ApprovedByID:    order.ApprovedByID,
		ApprovedAt:      order.ApprovedAt,
		DecisionComment: order.DecisionComment,
		OrderedAt:       order.OrderedAt,
		ClosedAt:        order.ClosedAt,
		CancelledAt:     order.CancelledAt,
		TotalAmount:     order.TotalAmount,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Version:         order.Version,
	}
}

// ToPurchaseOrderResponses converts a slice of orders
func ToPurchaseOrderResponses(orders []trade.PurchaseOrder) []PurchaseOrderResponse {
	responses := make([]PurchaseOrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToPurchaseOrderResponse(&orders[i])
	}
	return responses
}

// PrintLine is one order line with product details
type PrintLine struct {
	Position    int             `json:"position"`
	ProductName string          `json:"product_name"`
	Reference   string          `json:"reference"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// PurchaseOrderPrint is the read-only projection handed to document renderers
type PurchaseOrderPrint struct {
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Supplier    string          `json:"supplier"`
	Note        string          `json:"note,omitempty"`
	CreatedBy   string          `json:"created_by"`
	ApprovedBy  string          `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Lines       []PrintLine     `json:"lines"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// AutoGenerateResult lists the draft orders created by a reorder run
type AutoGenerateResult struct {
	Created []PurchaseOrderResponse `json:"created"`
	Skipped int                     `json:"skipped"`
}

package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/inventory"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Reference   string          `json:"reference"`
	Unit        string          `json:"unit"`
	Quantity    int             `json:"quantity"`
	MinStock    int             `json:"min_stock"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	StockValue  decimal.Decimal `json:"stock_value"`
	StockStatus string          `json:"stock_status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *inventory.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Reference:   p.Reference,
		Unit:        p.Unit,
		Quantity:    p.Quantity,
		MinStock:    p.MinStock,
		UnitCost:    p.UnitCost,
		StockValue:  p.StockValue(),
		StockStatus: string(p.StockStatus()),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}

// LedgerEntryResponse represents a stock movement in API responses
type LedgerEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProductID     uuid.UUID  `json:"product_id"`
	UserID        uuid.UUID  `json:"user_id"`
	Direction     string     `json:"direction"`
	Source        string     `json:"source"`
	SourceID      *uuid.UUID `json:"source_id,omitempty"`
	Quantity      int        `json:"quantity"`
	BalanceBefore int        `json:"balance_before"`
	BalanceAfter  int        `json:"balance_after"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToLedgerEntryResponse converts a domain LedgerEntry to LedgerEntryResponse
func ToLedgerEntryResponse(e *inventory.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
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

// AdjustmentResponse represents a stock adjustment in API responses
type AdjustmentResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	Direction       string     `json:"direction"`
	Quantity        int        `json:"quantity"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	RequestedByID   uuid.UUID  `json:"requested_by_id"`
	ApprovedByID    *uuid.UUID `json:"approved_by_id,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecisionComment string     `json:"decision_comment,omitempty"`
	AuditID         *uuid.UUID `json:"audit_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToAdjustmentResponse converts a domain StockAdjustment to AdjustmentResponse
func ToAdjustmentResponse(a *inventory.StockAdjustment) AdjustmentResponse {
	return AdjustmentResponse{
		ID:              a.ID,
		ProductID:       a.ProductID,
		Direction:       string(a.Direction),
		Quantity:        a.Quantity,
		Reason:          a.Reason,
		Status:          string(a.Status),
		RequestedByID:   a.RequestedByID,
		ApprovedByID:    a.ApprovedByID,
		DecidedAt:       a.DecidedAt,
		DecisionComment: a.DecisionComment,
		AuditID:         a.AuditID,
		CreatedAt:       a.CreatedAt,
	}
}

// ReceiptResponse represents a stock receipt in API responses
type ReceiptResponse struct {
	ID              uuid.UUID  `json:"id"`
	ProductID       uuid.UUID  `json:"product_id"`
	Quantity        int        `json:"quantity"`
	SupplierName    string     `json:"supplier_name"`
	BatchNumber     string     `json:"batch_number,omitempty"`
	Status          string     `json:"status"`
	RequestedByID   uuid.UUID  `json:"requested_by_id"`
	ApprovedByID    *uuid.UUID `json:"approved_by_id,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecisionComment string     `json:"decision_comment,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToReceiptResponse converts a domain StockReceipt to ReceiptResponse
func ToReceiptResponse(r *inventory.StockReceipt) ReceiptResponse {
	return ReceiptResponse{
		ID:              r.ID,
		ProductID:       r.ProductID,
		Quantity:        r.Quantity,
		SupplierName:    r.SupplierName,
		BatchNumber:     r.BatchNumber,
		Status:          string(r.Status),
		RequestedByID:   r.RequestedByID,
		ApprovedByID:    r.ApprovedByID,
		DecidedAt:       r.DecidedAt,
		DecisionComment: r.DecisionComment,
		CreatedAt:       r.CreatedAt,
	}
}

// AuditItemResponse represents one audited product
type AuditItemResponse struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	ProductName     string    `json:"product_name"`
	ProductRef      string    `json:"product_reference"`
	SystemQuantity  int       `json:"system_quantity"`
	CountedQuantity *int      `json:"counted_quantity"`
	Discrepancy     *int      `json:"discrepancy"`
}

// AuditResponse represents an inventory audit in API responses
type AuditResponse struct {
	ID          uuid.UUID           `json:"id"`
	AuditNumber string              `json:"audit_number"`
	Status      string              `json:"status"`
	CreatedByID uuid.UUID           `json:"created_by_id"`
	Note        string              `json:"note,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty"`
	Items       []AuditItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// ToAuditResponse converts a domain InventoryAudit to AuditResponse
func ToAuditResponse(a *inventory.InventoryAudit) AuditResponse {
	items := make([]AuditItemResponse, 0, len(a.Items))
	for _, item := range a.Items {
		items = append(items, AuditItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductRef:      item.ProductRef,
			SystemQuantity:  item.SystemQuantity,
			CountedQuantity: item.CountedQuantity,
			Discrepancy:     item.Discrepancy,
		})
	}
	return AuditResponse{
		ID:          a.ID,
		AuditNumber: a.AuditNumber,
		Status:      string(a.Status),
		CreatedByID: a.CreatedByID,
		Note:        a.Note,
		CompletedAt: a.CompletedAt,
		ClosedAt:    a.ClosedAt,
		Items:       items,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// DiscrepancyReport is the read-only projection of an audit's differences
type DiscrepancyReport struct {
	AuditID     uuid.UUID              `json:"audit_id"`
	AuditNumber string                 `json:"audit_number"`
	Status      string                 `json:"status"`
	Lines       []AuditItemResponse    `json:"lines"`
	Adjustments []AdjustmentResponse   `json:"adjustments"`
	ValueImpact decimal.Decimal        `json:"value_impact"`
	Totals      DiscrepancyReportTotal `json:"totals"`
}

// DiscrepancyReportTotal summarises a discrepancy report
type DiscrepancyReportTotal struct {
	Surplus  int `json:"surplus"`
	Shortage int `json:"shortage"`
}

// LedgerCheckResult reports products whose quantity disagrees with the ledger
type LedgerCheckResult struct {
	Checked    int                       `json:"checked"`
	Mismatches []inventory.LedgerBalance `json:"mismatches"`
}

// CreateProductInput is the input for creating a product
type CreateProductInput struct {
	Name            string
	Reference       string
	Unit            string
	MinStock        int
	UnitCost        decimal.Decimal
	InitialQuantity int
}

// UpdateProductInput is the input for updating a product's descriptive fields
type UpdateProductInput struct {
	Name     string
	Unit     string
	MinStock int
	UnitCost decimal.Decimal
}

// DirectAdjustInput sets a product to an absolute quantity
type DirectAdjustInput struct {
	ProductID      uuid.UUID
	TargetQuantity int
	Reason         string
}

// DeltaAdjustInput proposes a signed change
type DeltaAdjustInput struct {
	ProductID uuid.UUID
	Direction inventory.Direction
	Quantity  int
	Reason    string
}

// DecisionInput carries an approver's verdict
type DecisionInput struct {
	Decision inventory.Decision
	Comment  string
}

// ReceiptInput is one incoming supplier line
type ReceiptInput struct {
	ProductID    uuid.UUID
	Quantity     int
	SupplierName string
	BatchNumber  string
}

// CountInput is one physical count
type CountInput struct {
	ProductID       uuid.UUID
	CountedQuantity int
}

// ListFilter is the common paginated list filter
type ListFilter struct {
	Page     int
	PageSize int
	Status   string
}

package inventory

import (
	"strings"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// StockReceipt is incoming stock from a supplier
type StockReceipt struct {
	shared.BaseAggregateRoot
	approvalState
	ProductID    uuid.UUID
	Quantity     int
	SupplierName string
	BatchNumber  string
}

// NewPendingReceipt creates a receipt awaiting financial approval
func NewPendingReceipt(productID uuid.UUID, quantity int, supplierName, batchNumber string, requestedBy uuid.UUID) (*StockReceipt, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Receipt quantity must be positive")
	}
	supplierName = strings.TrimSpace(supplierName)
	if supplierName == "" {
		return nil, shared.NewValidationError("INVALID_SUPPLIER", "Supplier name cannot be empty")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_REQUESTER", "Requester cannot be empty")
	}
	return &StockReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		approvalState: approvalState{
			Status:        ApprovalStatusPending,
			RequestedByID: requestedBy,
		},
		ProductID:    productID,
		Quantity:     quantity,
		SupplierName: supplierName,
		BatchNumber:  strings.TrimSpace(batchNumber),
	}, nil
}

// NewApprovedReceipt creates an administrator receipt that skips PENDING
func NewApprovedReceipt(productID uuid.UUID, quantity int, supplierName, batchNumber string, adminID uuid.UUID) (*StockReceipt, error) {
	r, err := NewPendingReceipt(productID, quantity, supplierName, batchNumber, adminID)
	if err != nil {
		return nil, err
	}
	r.selfApprove(adminID)
	return r, nil
}

// Decide records the approver's verdict
func (r *StockReceipt) Decide(approverID uuid.UUID, decision Decision, comment string) error {
	if err := r.decide("stock receipt", approverID, decision, comment); err != nil {
		return err
	}
	r.Touch()
	return nil
}

// IsApproved reports whether the receipt has been applied
func (r *StockReceipt) IsApproved() bool {
	return r.Status == ApprovalStatusApproved
}

package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// StockAdjustment is a proposed or applied stock correction
type StockAdjustment struct {
	shared.BaseAggregateRoot
	approvalState
	ProductID uuid.UUID
	Direction Direction
	Quantity  int
	Reason    string
	AuditID   *uuid.UUID // set when spawned by an audit reconciliation
}

func newAdjustment(productID uuid.UUID, direction Direction, quantity int, reason string, requestedBy uuid.UUID) (*StockAdjustment, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("INVALID_DIRECTION", "Direction must be IN or OUT")
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Adjustment quantity must be positive")
	}
	if requestedBy == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_REQUESTER", "Requester cannot be empty")
	}
	return &StockAdjustment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		approvalState: approvalState{
			Status:        ApprovalStatusPending,
			RequestedByID: requestedBy,
		},
		ProductID: productID,
		Direction: direction,
		Quantity:  quantity,
		Reason:    strings.TrimSpace(reason),
	}, nil
}

// NewPendingAdjustment creates an adjustment awaiting financial approval
func NewPendingAdjustment(productID uuid.UUID, direction Direction, quantity int, reason string, requestedBy uuid.UUID) (*StockAdjustment, error) {
	return newAdjustment(productID, direction, quantity, reason, requestedBy)
}

// NewApprovedAdjustment creates an administrator adjustment that skips PENDING
func NewApprovedAdjustment(productID uuid.UUID, direction Direction, quantity int, reason string, adminID uuid.UUID) (*StockAdjustment, error) {
	adj, err := newAdjustment(productID, direction, quantity, reason, adminID)
	if err != nil {
		return nil, err
	}
	adj.selfApprove(adminID)
	return adj, nil
}

// NewReconciliationAdjustment creates the pending correction for one audit discrepancy
func NewReconciliationAdjustment(audit *InventoryAudit, item InventoryAuditItem, requestedBy uuid.UUID) (*StockAdjustment, error) {
	if item.Discrepancy == nil || *item.Discrepancy == 0 {
		return nil, shared.NewValidationError("NO_DISCREPANCY", "Audit item has no discrepancy")
	}
	direction, quantity := DirectionOf(*item.Discrepancy)
	reason := fmt.Sprintf("Reconciliation following inventory audit %s", audit.AuditNumber)
	adj, err := newAdjustment(item.ProductID, direction, quantity, reason, requestedBy)
	if err != nil {
		return nil, err
	}
	auditID := audit.ID
	adj.AuditID = &auditID
	return adj, nil
}

// Decide records the approver's verdict
func (a *StockAdjustment) Decide(approverID uuid.UUID, decision Decision, comment string) error {
	if err := a.decide("stock adjustment", approverID, decision, comment); err != nil {
		return err
	}
	a.Touch()
	return nil
}

// Delta returns the signed quantity change
func (a *StockAdjustment) Delta() int {
	return a.Direction.Sign() * a.Quantity
}

// IsApproved reports whether the adjustment has been applied
func (a *StockAdjustment) IsApproved() bool {
	return a.Status == ApprovalStatusApproved
}

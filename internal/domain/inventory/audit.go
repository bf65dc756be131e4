package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// AuditStatus represents the status of an inventory audit
type AuditStatus string

const (
	AuditStatusInProgress            AuditStatus = "IN_PROGRESS"
	AuditStatusCompleted             AuditStatus = "COMPLETED"
	AuditStatusReconciliationPending AuditStatus = "RECONCILIATION_PENDING"
	AuditStatusClosed                AuditStatus = "CLOSED"
)

// IsValid checks if the status is a valid AuditStatus
func (s AuditStatus) IsValid() bool {
	switch s {
	case AuditStatusInProgress, AuditStatusCompleted, AuditStatusReconciliationPending, AuditStatusClosed:
		return true
	}
	return false
}

// String returns the string representation of AuditStatus
func (s AuditStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s AuditStatus) CanTransitionTo(target AuditStatus) bool {
	switch s {
	case AuditStatusInProgress:
		return target == AuditStatusCompleted
	case AuditStatusCompleted:
		return target == AuditStatusReconciliationPending || target == AuditStatusClosed
	case AuditStatusReconciliationPending:
		return target == AuditStatusClosed
	case AuditStatusClosed:
		return false
	}
	return false
}

// InventoryAuditItem is the snapshot and count of one product
type InventoryAuditItem struct {
	ID              uuid.UUID
	AuditID         uuid.UUID
	ProductID       uuid.UUID
	ProductName     string
	ProductRef      string
	SystemQuantity  int  // captured at audit creation
	CountedQuantity *int // nil until counted
	Discrepancy     *int // counted - system
}

// IsCounted reports whether a physical count was recorded
func (i *InventoryAuditItem) IsCounted() bool {
	return i.CountedQuantity != nil
}

// HasDiscrepancy reports a nonzero difference
func (i *InventoryAuditItem) HasDiscrepancy() bool {
	return i.Discrepancy != nil && *i.Discrepancy != 0
}

func (i *InventoryAuditItem) recordCount(counted int) {
	c := counted
	d := counted - i.SystemQuantity
	i.CountedQuantity = &c
	i.Discrepancy = &d
}

// InventoryAudit is a point-in-time stock count.
// It compares counts against the snapshot, not against live stock.
type InventoryAudit struct {
	shared.BaseAggregateRoot
	AuditNumber string
	Status      AuditStatus
	CreatedByID uuid.UUID
	Note        string
	CompletedAt *time.Time
	ClosedAt    *time.Time
	Items       []InventoryAuditItem
}

// NewInventoryAudit snapshots the given products
func NewInventoryAudit(auditNumber string, createdBy uuid.UUID, note string, products []Product) (*InventoryAudit, error) {
	if auditNumber == "" {
		return nil, shared.NewValidationError("INVALID_AUDIT_NUMBER", "Audit number cannot be empty")
	}
	if createdBy == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_CREATOR", "Creator cannot be empty")
	}
	audit := &InventoryAudit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AuditNumber:       auditNumber,
		Status:            AuditStatusInProgress,
		CreatedByID:       createdBy,
		Note:              note,
		Items:             make([]InventoryAuditItem, 0, len(products)),
	}
	for _, p := range products {
		audit.Items = append(audit.Items, InventoryAuditItem{
			ID:             uuid.New(),
			AuditID:        audit.ID,
			ProductID:      p.ID,
			ProductName:    p.Name,
			ProductRef:     p.Reference,
			SystemQuantity: p.Quantity,
		})
	}
	return audit, nil
}

// RecordCounts stores counted quantities for products in the audit.
// Products absent from the audit are skipped; the number applied is returned.
func (a *InventoryAudit) RecordCounts(counts map[uuid.UUID]int) (int, error) {
	if a.Status != AuditStatusInProgress {
		return 0, shared.NewInvalidStateError("Counts can only be recorded while the audit is IN_PROGRESS")
	}
	for productID, counted := range counts {
		if counted < 0 {
			return 0, shared.NewValidationError("INVALID_COUNT", "Counted quantity cannot be negative for product "+productID.String())
		}
	}
	applied := 0
	for i := range a.Items {
		counted, ok := counts[a.Items[i].ProductID]
		if !ok {
			continue
		}
		a.Items[i].recordCount(counted)
		applied++
	}
	if applied > 0 {
		a.Touch()
	}
	return applied, nil
}

// Complete closes counting; every item must be counted
func (a *InventoryAudit) Complete() error {
	if !a.Status.CanTransitionTo(AuditStatusCompleted) {
		return shared.NewInvalidTransitionError("audit", a.Status, AuditStatusCompleted)
	}
	for _, item := range a.Items {
		if !item.IsCounted() {
			return shared.NewValidationError("UNCOUNTED_ITEMS", "All items must be counted before completing the audit")
		}
	}
	now := time.Now()
	a.Status = AuditStatusCompleted
	a.CompletedAt = &now
	a.Touch()
	return nil
}

// Discrepancies returns the items whose count differs from the snapshot
func (a *InventoryAudit) Discrepancies() []InventoryAuditItem {
	var out []InventoryAuditItem
	for _, item := range a.Items {
		if item.HasDiscrepancy() {
			out = append(out, item)
		}
	}
	return out
}

// StartReconciliation moves a completed audit to RECONCILIATION_PENDING,
// or straight to CLOSED when nothing needs correcting.
func (a *InventoryAudit) StartReconciliation() error {
	if a.Status != AuditStatusCompleted {
		return shared.NewInvalidStateError("Reconciliation can only be requested for a COMPLETED audit")
	}
	if len(a.Discrepancies()) == 0 {
		return a.Close()
	}
	a.Status = AuditStatusReconciliationPending
	a.Touch()
	return nil
}

// Close marks the audit closed
func (a *InventoryAudit) Close() error {
	if !a.Status.CanTransitionTo(AuditStatusClosed) {
		return shared.NewInvalidTransitionError("audit", a.Status, AuditStatusClosed)
	}
	now := time.Now()
	a.Status = AuditStatusClosed
	a.ClosedAt = &now
	a.Touch()
	return nil
}

// CloseIfSettled closes a reconciliation-pending audit once every linked
// adjustment is decided. It returns true only when it performed the close,
// so calling it again on a closed audit changes nothing.
func (a *InventoryAudit) CloseIfSettled(adjustments []StockAdjustment) (bool, error) {
	if a.Status != AuditStatusReconciliationPending {
		return false, nil
	}
	for _, adj := range adjustments {
		if !adj.Status.IsTerminal() {
			return false, nil
		}
	}
	if err := a.Close(); err != nil {
		return false, err
	}
	return true, nil
}

package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/shared"
)

const entityName = "purchase order"

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft           PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusPendingApproval PurchaseOrderStatus = "PENDING_APPROVAL"
	PurchaseOrderStatusApproved        PurchaseOrderStatus = "APPROVED"
	PurchaseOrderStatusToReview        PurchaseOrderStatus = "A_REVOIR"
	PurchaseOrderStatusOrdered         PurchaseOrderStatus = "ORDERED"
	PurchaseOrderStatusClosed          PurchaseOrderStatus = "CLOTUREE"
	PurchaseOrderStatusCancelled       PurchaseOrderStatus = "ANNULEE"
)

// AllPurchaseOrderStatuses lists every purchase order status
var AllPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved,
	PurchaseOrderStatusToReview, PurchaseOrderStatusOrdered, PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled,
}

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved,
		PurchaseOrderStatusToReview, PurchaseOrderStatusOrdered, PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the order can no longer change
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusClosed || s == PurchaseOrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if target == PurchaseOrderStatusCancelled {
		return !s.IsTerminal() && s.IsValid()
	}
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusToReview:
		return target == PurchaseOrderStatusPendingApproval
	case PurchaseOrderStatusPendingApproval:
		return target == PurchaseOrderStatusApproved || target == PurchaseOrderStatusToReview
	case PurchaseOrderStatusApproved:
		return target == PurchaseOrderStatusOrdered
	case PurchaseOrderStatusOrdered:
		return target == PurchaseOrderStatusClosed
	case PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsEditable returns true while the creator may still change the content
func (s PurchaseOrderStatus) IsEditable() bool {
	return s == PurchaseOrderStatusDraft || s == PurchaseOrderStatusToReview
}

// IsOpen returns true for orders that block auto-generation for their products
func (s PurchaseOrderStatus) IsOpen() bool {
	return s == PurchaseOrderStatusDraft || s == PurchaseOrderStatusPendingApproval
}

// PurchaseOrderItem represents a line item in a purchase order
type PurchaseOrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Position  int
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal // Quantity * UnitPrice
}

// LineInput is a product, quantity and price for a new or edited order
type LineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

func newPurchaseOrderItem(orderID uuid.UUID, position int, line LineInput) (PurchaseOrderItem, error) {
	if line.ProductID == uuid.Nil {
		return PurchaseOrderItem{}, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if line.Quantity <= 0 {
		return PurchaseOrderItem{}, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if line.UnitPrice.IsNegative() {
		return PurchaseOrderItem{}, shared.NewValidationError("INVALID_UNIT_PRICE", "Unit price cannot be negative")
	}
	return PurchaseOrderItem{
		ID:        uuid.New(),
		OrderID:   orderID,
		ProductID: line.ProductID,
		Position:  position,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		LineTotal: line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}, nil
}

// PurchaseOrder represents a purchase order aggregate root
// It manages the lifecycle of a supplier order from draft to closure
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	Supplier        string
	Note            string
	Status          PurchaseOrderStatus
	CreatedByID     uuid.UUID
	ApprovedByID    *uuid.UUID
	ApprovedAt      *time.Time
	DecisionComment string
	OrderedAt       *time.Time
	ClosedAt        *time.Time
	CancelledAt     *time.Time
	TotalAmount     decimal.Decimal // Sum of all line totals
	Items           []PurchaseOrderItem
}

// CanCreatePurchaseOrder reports whether the role may open an order
func CanCreatePurchaseOrder(actor identity.Actor) bool {
	return actor.HasRole(identity.RoleStorekeeper, identity.RoleFinance, identity.RoleAdmin)
}

// NewPurchaseOrder creates a new purchase order in DRAFT
func NewPurchaseOrder(orderNumber string, creator identity.Actor, supplier, note string, lines []LineInput) (*PurchaseOrder, error) {
	if !CanCreatePurchaseOrder(creator) {
		return nil, shared.NewPermissionError("Role cannot create a purchase order")
	}
	if orderNumber == "" {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}

	order := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		Status:            PurchaseOrderStatusDraft,
		CreatedByID:       creator.ID,
		TotalAmount:       decimal.Zero,
	}
	if err := order.replaceContent(supplier, note, lines); err != nil {
		return nil, err
	}
	return order, nil
}

func (o *PurchaseOrder) replaceContent(supplier, note string, lines []LineInput) error {
	if len(lines) == 0 {
		return shared.NewValidationError("NO_ITEMS", "Purchase order must contain at least one item")
	}
	items := make([]PurchaseOrderItem, 0, len(lines))
	seen := make(map[uuid.UUID]struct{}, len(lines))
	for idx, line := range lines {
		if _, dup := seen[line.ProductID]; dup {
			return shared.NewValidationError("DUPLICATE_PRODUCT", fmt.Sprintf("Product %s appears more than once", line.ProductID))
		}
		seen[line.ProductID] = struct{}{}
		item, err := newPurchaseOrderItem(o.ID, idx+1, line)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	o.Supplier = strings.TrimSpace(supplier)
	o.Note = strings.TrimSpace(note)
	o.Items = items
	o.recalculateTotals()
	return nil
}

// recalculateTotals recalculates the total amount from items
func (o *PurchaseOrder) recalculateTotals() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal)
	}
	o.TotalAmount = total
}

// ProductIDs returns the products on the order
func (o *PurchaseOrder) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// ContainsProduct reports whether a line references the product
func (o *PurchaseOrder) ContainsProduct(productID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (o *PurchaseOrder) transition(target PurchaseOrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(entityName, o.Status, target)
	}
	o.Status = target
	o.Touch()
	return nil
}

const notCreator = "A user other than the creator"

func (o *PurchaseOrder) roleDenied(actor identity.Actor, target PurchaseOrderStatus) error {
	return shared.NewTransitionPermissionError("Role "+actor.Role.String(), entityName, o.Status, target)
}

// Edit replaces supplier, note and items while the order is editable
func (o *PurchaseOrder) Edit(actor identity.Actor, supplier, note string, lines []LineInput) error {
	if !actor.Is(o.CreatedByID) {
		return shared.NewPermissionError("Only the creator can edit a purchase order")
	}
	if !o.Status.IsEditable() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot edit purchase order in %s status", o.Status))
	}
	if err := o.replaceContent(supplier, note, lines); err != nil {
		return err
	}
	o.Touch()
	return nil
}

// Submit sends a draft or returned order for financial approval
func (o *PurchaseOrder) Submit(actor identity.Actor) error {
	if !actor.Is(o.CreatedByID) {
		return shared.NewTransitionPermissionError(notCreator, entityName, o.Status, PurchaseOrderStatusPendingApproval)
	}
	return o.transition(PurchaseOrderStatusPendingApproval)
}

// Approve accepts a pending order
func (o *PurchaseOrder) Approve(actor identity.Actor, comment string) error {
	if !actor.HasRole(identity.RoleFinance) {
		return o.roleDenied(actor, PurchaseOrderStatusApproved)
	}
	if err := o.transition(PurchaseOrderStatusApproved); err != nil {
		return err
	}
	o.recordDecision(actor, comment)
	return nil
}

// SendBack returns a pending order to its creator for changes
func (o *PurchaseOrder) SendBack(actor identity.Actor, comment string) error {
	if !actor.HasRole(identity.RoleFinance) {
		return o.roleDenied(actor, PurchaseOrderStatusToReview)
	}
	if err := o.transition(PurchaseOrderStatusToReview); err != nil {
		return err
	}
	o.recordDecision(actor, comment)
	return nil
}

func (o *PurchaseOrder) recordDecision(actor identity.Actor, comment string) {
	now := time.Now()
	approverID := actor.ID
	o.ApprovedByID = &approverID
	o.ApprovedAt = &now
	o.DecisionComment = strings.TrimSpace(comment)
}

// MarkOrdered records that the order was placed with the supplier
func (o *PurchaseOrder) MarkOrdered(actor identity.Actor) error {
	if !actor.HasRole(identity.RoleStorekeeper) {
		return o.roleDenied(actor, PurchaseOrderStatusOrdered)
	}
	if err := o.transition(PurchaseOrderStatusOrdered); err != nil {
		return err
	}
	now := time.Now()
	o.OrderedAt = &now
	return nil
}

// Close marks the goods as received. The caller books one IN movement per returned line.
func (o *PurchaseOrder) Close(actor identity.Actor) ([]PurchaseOrderItem, error) {
	if !actor.HasRole(identity.RoleStorekeeper) {
		return nil, o.roleDenied(actor, PurchaseOrderStatusClosed)
	}
	if err := o.transition(PurchaseOrderStatusClosed); err != nil {
		return nil, err
	}
	now := time.Now()
	o.ClosedAt = &now
	return o.Items, nil
}

// Cancel abandons a non-terminal order
func (o *PurchaseOrder) Cancel(actor identity.Actor) error {
	if !actor.HasRole(identity.RoleFinance, identity.RoleAdmin) {
		return o.roleDenied(actor, PurchaseOrderStatusCancelled)
	}
	if err := o.transition(PurchaseOrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	return nil
}

// EnsureDeletable checks that the actor may remove the order
func (o *PurchaseOrder) EnsureDeletable(actor identity.Actor) error {
	if !actor.HasRole(identity.RoleAdmin) {
		return shared.NewPermissionError("Only an administrator can delete a purchase order")
	}
	if o.Status == PurchaseOrderStatusClosed {
		return shared.NewInvalidStateError("A closed purchase order cannot be deleted")
	}
	return nil
}

// DefaultReorderUnitPrice is used for auto-generated lines
var DefaultReorderUnitPrice = decimal.NewFromInt(10)

// ReorderLine proposes the replenishment line for a product under its minimum.
// It returns false when nothing should be ordered.
func ReorderLine(p *inventory.Product) (LineInput, bool) {
	if !p.IsBelowMinStock() {
		return LineInput{}, false
	}
	qty := p.MinStock*2 - p.Quantity
	if qty <= 0 {
		return LineInput{}, false
	}
	return LineInput{ProductID: p.ID, Quantity: qty, UnitPrice: DefaultReorderUnitPrice}, true
}

// AutoSupplierName is the placeholder supplier of an auto-generated order
func AutoSupplierName(p *inventory.Product) string {
	return "Auto-generated for " + p.Name
}

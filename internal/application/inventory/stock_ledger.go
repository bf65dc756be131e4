package inventory

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
)

// Movement describes one stock change requested by a workflow
type Movement struct {
	ProductID uuid.UUID
	ActorID   uuid.UUID
	Direction inventory.Direction
	Quantity  int
	Source    inventory.Source
	SourceID  *uuid.UUID
}

// MovementRecorder receives every applied movement, e.g. for metrics
type MovementRecorder interface {
	RecordMovement(ctx context.Context, direction inventory.Direction, source inventory.Source, quantity int)
}

// StockLedger is the single path through which product quantities change.
// Apply must run inside the caller's transaction.
type StockLedger struct {
	recorder MovementRecorder
}

// NewStockLedger creates a StockLedger
func NewStockLedger() *StockLedger {
	return &StockLedger{}
}

// WithRecorder sets the movement recorder
func (l *StockLedger) WithRecorder(recorder MovementRecorder) *StockLedger {
	l.recorder = recorder
	return l
}

// Apply locks the product, checks sufficiency, persists the new quantity and
// appends the ledger entry. A low-stock intent is returned when the product
// ends at or under its minimum.
func (l *StockLedger) Apply(ctx context.Context, repos TransactionalRepositories, m Movement) (*inventory.LedgerEntry, notification.List, error) {
	product, err := repos.ProductRepo().FindByIDForUpdate(ctx, m.ProductID)
	if err != nil {
		return nil, nil, err
	}

	before, after, err := product.ApplyMovement(m.Direction, m.Quantity)
	if err != nil {
		return nil, nil, err
	}

	entry, err := inventory.NewLedgerEntry(product.ID, m.ActorID, m.Direction, m.Source, m.SourceID, m.Quantity, before, after)
	if err != nil {
		return nil, nil, err
	}

	if err := repos.ProductRepo().UpdateQuantity(ctx, product); err != nil {
		return nil, nil, fmt.Errorf("failed to update product quantity: %w", err)
	}
	if err := repos.LedgerRepo().Append(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if l.recorder != nil {
		l.recorder.RecordMovement(ctx, m.Direction, m.Source, m.Quantity)
	}

	var intents notification.List
	if product.IsLowStock() {
		intents.Add(LowStockIntent(product))
	}
	return entry, intents, nil
}

// ApplyAll applies movements ordered by product id and stops at the first failure.
// Transactions touching the same products therefore take their row locks in the same order.
func (l *StockLedger) ApplyAll(ctx context.Context, repos TransactionalRepositories, movements []Movement) ([]inventory.LedgerEntry, notification.List, error) {
	entries := make([]inventory.LedgerEntry, 0, len(movements))
	var intents notification.List
	for _, m := range LockOrder(movements) {
		entry, more, err := l.Apply(ctx, repos, m)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, *entry)
		intents.Add(more...)
	}
	return entries, intents, nil
}

// LockOrder returns a copy of movements sorted by product id. The sort is
// stable so several movements on one product keep their relative order.
func LockOrder(movements []Movement) []Movement {
	ordered := slices.Clone(movements)
	slices.SortStableFunc(ordered, func(a, b Movement) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return ordered
}

// LowStockIntent builds the alert sent when a product reaches its minimum
func LowStockIntent(p *inventory.Product) notification.Intent {
	msg := fmt.Sprintf("Low stock: %s (%s) has %d %s left, minimum is %d", p.Name, p.Reference, p.Quantity, p.Unit, p.MinStock)
	return notification.ToRoles(notification.TypeLowStockAlert, msg,
		identity.RoleAdmin, identity.RoleStorekeeper, identity.RoleRequester).
		About("product", p.ID)
}

package inventory_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockingProducts records the order in which product rows are locked
type lockingProducts struct {
	inventory.ProductRepository
	products map[uuid.UUID]*inventory.Product
	locked   []uuid.UUID
}

func (r *lockingProducts) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	r.locked = append(r.locked, id)
	return r.products[id], nil
}

func (r *lockingProducts) UpdateQuantity(context.Context, *inventory.Product) error {
	return nil
}

type appendOnlyLedger struct {
	inventory.LedgerRepository
	entries []inventory.LedgerEntry
}

func (l *appendOnlyLedger) Append(_ context.Context, entry *inventory.LedgerEntry) error {
	l.entries = append(l.entries, *entry)
	return nil
}

func stockedProduct(t *testing.T, reference string, qty int) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(reference, reference, "pcs", 0, decimal.NewFromInt(1))
	require.NoError(t, err)
	_, _, err = p.ApplyMovement(inventory.DirectionIn, qty)
	require.NoError(t, err)
	return p
}

func TestLockOrder(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")
	movements := []appinv.Movement{
		{ProductID: high, Quantity: 1},
		{ProductID: low, Quantity: 2},
		{ProductID: high, Quantity: 3},
	}

	ordered := appinv.LockOrder(movements)

	require.Len(t, ordered, 3)
	assert.Equal(t, low, ordered[0].ProductID)
	assert.Equal(t, 1, ordered[1].Quantity, "movements on one product keep their order")
	assert.Equal(t, 3, ordered[2].Quantity)
	assert.Equal(t, high, movements[0].ProductID, "input is left untouched")
}

func TestStockLedger_ApplyAllLocksInProductOrder(t *testing.T) {
	ctx := context.Background()
	a := stockedProduct(t, "A", 10)
	b := stockedProduct(t, "B", 10)
	products := &lockingProducts{products: map[uuid.UUID]*inventory.Product{a.ID: a, b.ID: b}}
	ledgerRepo := &appendOnlyLedger{}
	scope := appinv.NewNoOpTransactionScope(appinv.Repositories{Products: products, Ledger: ledgerRepo})

	actorID := uuid.New()
	first, second := a.ID, b.ID
	if bytes.Compare(first[:], second[:]) > 0 {
		first, second = second, first
	}

	for _, lines := range [][]uuid.UUID{{a.ID, b.ID}, {b.ID, a.ID}} {
		products.locked = nil
		movements := make([]appinv.Movement, 0, len(lines))
		for _, id := range lines {
			movements = append(movements, appinv.Movement{
				ProductID: id, ActorID: actorID, Direction: inventory.DirectionOut, Quantity: 1, Source: inventory.SourceRequest,
			})
		}
		err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
			_, _, err := appinv.NewStockLedger().ApplyAll(ctx, repos, movements)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{first, second}, products.locked)
	}

	assert.Equal(t, 8, a.Quantity)
	assert.Equal(t, 8, b.Quantity)
	assert.Len(t, ledgerRepo.entries, 4)
}

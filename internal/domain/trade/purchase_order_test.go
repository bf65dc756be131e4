package trade

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	storekeeper = identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Store")
	otherKeeper = identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Store 2")
	daf         = identity.NewActor(uuid.New(), identity.RoleFinance, "Daf")
	admin       = identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin")
	chef        = identity.NewActor(uuid.New(), identity.RoleRequester, "Chef")
	observer    = identity.NewActor(uuid.New(), identity.RoleObserver, "Observer")
	allActors   = []identity.Actor{storekeeper, otherKeeper, daf, admin, chef, observer}
)

// Test helpers for PurchaseOrder
func createTestPurchaseOrder(t *testing.T) *PurchaseOrder {
	t.Helper()
	order, err := NewPurchaseOrder("BC-2025-00001", storekeeper, "ACME", "", []LineInput{
		{ProductID: uuid.New(), Quantity: 3, UnitPrice: decimal.NewFromFloat(2.5)},
		{ProductID: uuid.New(), Quantity: 2, UnitPrice: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)
	return order
}

// ============================================
// PurchaseOrderStatus Tests
// ============================================

func TestPurchaseOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     PurchaseOrderStatus
		to       PurchaseOrderStatus
		canTrans bool
	}{
		{PurchaseOrderStatusDraft, PurchaseOrderStatusPendingApproval, true},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusApproved, false},
		{PurchaseOrderStatusDraft, PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatusToReview, PurchaseOrderStatusPendingApproval, true},
		{PurchaseOrderStatusPendingApproval, PurchaseOrderStatusApproved, true},
		{PurchaseOrderStatusPendingApproval, PurchaseOrderStatusToReview, true},
		{PurchaseOrderStatusPendingApproval, PurchaseOrderStatusOrdered, false},
		{PurchaseOrderStatusApproved, PurchaseOrderStatusOrdered, true},
		{PurchaseOrderStatusApproved, PurchaseOrderStatusClosed, false},
		{PurchaseOrderStatusOrdered, PurchaseOrderStatusClosed, true},
		{PurchaseOrderStatusOrdered, PurchaseOrderStatusCancelled, true},
		// Terminal states
		{PurchaseOrderStatusClosed, PurchaseOrderStatusCancelled, false},
		{PurchaseOrderStatusCancelled, PurchaseOrderStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

// ============================================
// PurchaseOrder Tests
// ============================================

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("computes line totals and total", func(t *testing.T) {
		order := createTestPurchaseOrder(t)
		assert.Equal(t, PurchaseOrderStatusDraft, order.Status)
		assert.Equal(t, storekeeper.ID, order.CreatedByID)
		require.Len(t, order.Items, 2)
		assert.True(t, decimal.NewFromFloat(7.5).Equal(order.Items[0].LineTotal))
		assert.True(t, decimal.NewFromFloat(27.5).Equal(order.TotalAmount))
		assert.Equal(t, 2, order.Items[1].Position)
	})

	t.Run("requester cannot create", func(t *testing.T) {
		_, err := NewPurchaseOrder("BC-2025-00001", chef, "ACME", "", []LineInput{{ProductID: uuid.New(), Quantity: 1}})
		assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewPurchaseOrder("BC-2025-00001", daf, "ACME", "", nil)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		_, err = NewPurchaseOrder("BC-2025-00001", daf, "ACME", "", []LineInput{{ProductID: uuid.New(), Quantity: 0}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		_, err = NewPurchaseOrder("BC-2025-00001", daf, "ACME", "", []LineInput{{ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestPurchaseOrder_HappyPath(t *testing.T) {
	order := createTestPurchaseOrder(t)

	require.NoError(t, order.Submit(storekeeper))
	assert.Equal(t, PurchaseOrderStatusPendingApproval, order.Status)

	require.NoError(t, order.SendBack(daf, "price too high"))
	assert.Equal(t, PurchaseOrderStatusToReview, order.Status)
	assert.Equal(t, "price too high", order.DecisionComment)

	require.NoError(t, order.Edit(storekeeper, "ACME 2", "cheaper", []LineInput{
		{ProductID: uuid.New(), Quantity: 4, UnitPrice: decimal.NewFromInt(1)},
	}))
	assert.True(t, decimal.NewFromInt(4).Equal(order.TotalAmount))
	assert.Equal(t, "ACME 2", order.Supplier)

	require.NoError(t, order.Submit(storekeeper))
	require.NoError(t, order.Approve(daf, ""))
	assert.Equal(t, daf.ID, *order.ApprovedByID)

	require.NoError(t, order.MarkOrdered(otherKeeper))
	assert.NotNil(t, order.OrderedAt)

	items, err := order.Close(storekeeper)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, PurchaseOrderStatusClosed, order.Status)

	err = order.Cancel(admin)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	assert.Contains(t, err.Error(), "CLOTUREE")
	assert.Contains(t, err.Error(), "ANNULEE")

	assert.True(t, errors.Is(order.EnsureDeletable(admin), shared.ErrInvalidTransition))
}

func TestPurchaseOrder_EditGuards(t *testing.T) {
	order := createTestPurchaseOrder(t)
	err := order.Edit(otherKeeper, "x", "", []LineInput{{ProductID: uuid.New(), Quantity: 1}})
	assert.True(t, errors.Is(err, shared.ErrPermissionDenied))

	require.NoError(t, order.Submit(storekeeper))
	err = order.Edit(storekeeper, "x", "", []LineInput{{ProductID: uuid.New(), Quantity: 1}})
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

func TestPurchaseOrder_Delete(t *testing.T) {
	order := createTestPurchaseOrder(t)
	assert.True(t, errors.Is(order.EnsureDeletable(daf), shared.ErrPermissionDenied))
	assert.NoError(t, order.EnsureDeletable(admin))
}

func TestPurchaseOrder_StateMachineCompleteness(t *testing.T) {
	type action struct {
		name    string
		target  PurchaseOrderStatus
		allowed map[PurchaseOrderStatus][]identity.Actor
		run     func(o *PurchaseOrder, a identity.Actor) error
	}
	closeFn := func(o *PurchaseOrder, a identity.Actor) error {
		_, err := o.Close(a)
		return err
	}
	actions := []action{
		{"submit", PurchaseOrderStatusPendingApproval, map[PurchaseOrderStatus][]identity.Actor{
			PurchaseOrderStatusDraft:    {storekeeper},
			PurchaseOrderStatusToReview: {storekeeper},
		}, func(o *PurchaseOrder, a identity.Actor) error { return o.Submit(a) }},
		{"approve", PurchaseOrderStatusApproved, map[PurchaseOrderStatus][]identity.Actor{
			PurchaseOrderStatusPendingApproval: {daf},
		}, func(o *PurchaseOrder, a identity.Actor) error { return o.Approve(a, "") }},
		{"send_back", PurchaseOrderStatusToReview, map[PurchaseOrderStatus][]identity.Actor{
			PurchaseOrderStatusPendingApproval: {daf},
		}, func(o *PurchaseOrder, a identity.Actor) error { return o.SendBack(a, "") }},
		{"order", PurchaseOrderStatusOrdered, map[PurchaseOrderStatus][]identity.Actor{
			PurchaseOrderStatusApproved: {storekeeper, otherKeeper},
		}, func(o *PurchaseOrder, a identity.Actor) error { return o.MarkOrdered(a) }},
		{"close", PurchaseOrderStatusClosed, map[PurchaseOrderStatus][]identity.Actor{
			PurchaseOrderStatusOrdered: {storekeeper, otherKeeper},
		}, closeFn},
		{"cancel", PurchaseOrderStatusCancelled, map[PurchaseOrderStatus][]identity.Actor{
			PurchaseOrderStatusDraft:           {daf, admin},
			PurchaseOrderStatusPendingApproval: {daf, admin},
			PurchaseOrderStatusApproved:        {daf, admin},
			PurchaseOrderStatusToReview:        {daf, admin},
			PurchaseOrderStatusOrdered:         {daf, admin},
		}, func(o *PurchaseOrder, a identity.Actor) error { return o.Cancel(a) }},
	}

	for _, act := range actions {
		for _, status := range AllPurchaseOrderStatuses {
			for _, actor := range allActors {
				legal := false
				for _, a := range act.allowed[status] {
					legal = legal || a.ID == actor.ID
				}
				t.Run(act.name+"/"+string(status)+"/"+actor.Name, func(t *testing.T) {
					order := createTestPurchaseOrder(t)
					order.Status = status
					err := act.run(order, actor)
					if legal {
						assert.NoError(t, err)
						return
					}
					require.Error(t, err)
					assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
					assert.Contains(t, err.Error(), "from "+string(status)+" to "+string(act.target))
				})
			}
		}
	}
}

func TestReorderLine(t *testing.T) {
	p, err := inventory.NewProduct("Toner", "TON-1", "pcs", 5, decimal.NewFromInt(30))
	require.NoError(t, err)

	p.Quantity = 2
	line, ok := ReorderLine(p)
	require.True(t, ok)
	assert.Equal(t, 8, line.Quantity)
	assert.True(t, DefaultReorderUnitPrice.Equal(line.UnitPrice))
	assert.Equal(t, "Auto-generated for Toner", AutoSupplierName(p))

	p.Quantity = 5
	_, ok = ReorderLine(p)
	assert.False(t, ok)
}

func TestPurchaseOrder_PermissionNamesTransition(t *testing.T) {
	order := createTestPurchaseOrder(t)
	order.Status = PurchaseOrderStatusApproved

	err := order.MarkOrdered(daf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	assert.Equal(t, "Role DAF cannot transition purchase order from APPROVED to ORDERED", err.Error())
	assert.Equal(t, PurchaseOrderStatusApproved, order.Status)
}

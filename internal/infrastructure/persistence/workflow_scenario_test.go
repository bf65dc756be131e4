package persistence_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	apprequest "github.com/stockflow/backend/internal/application/request"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type countingRecorder struct {
	mu        sync.Mutex
	movements int
}

func (r *countingRecorder) RecordMovement(_ context.Context, _ inventory.Direction, _ inventory.Source, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements++
}

type workflowEngine struct {
	products    *appinv.ProductService
	adjustments *appinv.AdjustmentService
	audits      *appinv.AuditService
	requests    *apprequest.Service
	ledgerRepo  *persistence.GormLedgerRepository
	recorder    *countingRecorder

	admin       identity.Actor
	storekeeper identity.Actor
	requester   identity.Actor
	finance     identity.Actor
}

func newWorkflowEngine(t *testing.T) *workflowEngine {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, persistence.AutoMigrate(db))

	logger := zaptest.NewLogger(t)
	recorder := &countingRecorder{}
	scope := persistence.NewGormTransactionScope(db)
	ledger := appinv.NewStockLedger().WithRecorder(recorder)
	numbers := sequence.NewGenerator()
	products := persistence.NewGormProductRepository(db)
	ledgerRepo := persistence.NewGormLedgerRepository(db)
	adjustments := persistence.NewGormAdjustmentRepository(db)

	return &workflowEngine{
		products:    appinv.NewProductService(scope, products, ledgerRepo, ledger, logger),
		adjustments: appinv.NewAdjustmentService(scope, adjustments, ledger, logger),
		audits:      appinv.NewAuditService(scope, persistence.NewGormAuditRepository(db), adjustments, products, numbers, logger),
		requests:    apprequest.NewService(scope, persistence.NewGormRequestRepository(db), products, persistence.NewGormUserRepository(db), numbers, ledger, logger),
		ledgerRepo:  ledgerRepo,
		recorder:    recorder,
		admin:       identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin"),
		storekeeper: identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Storekeeper"),
		requester:   identity.NewActor(uuid.New(), identity.RoleRequester, "Head of IT"),
		finance:     identity.NewActor(uuid.New(), identity.RoleFinance, "CFO"),
	}
}

func (e *workflowEngine) createProduct(t *testing.T, reference string, quantity, minStock int) *appinv.ProductResponse {
	product, _, err := e.products.Create(context.Background(), e.admin, appinv.CreateProductInput{
		Name:            "Product " + reference,
		Reference:       reference,
		MinStock:        minStock,
		UnitCost:        decimal.NewFromInt(4),
		InitialQuantity: quantity,
	})
	require.NoError(t, err)
	return product
}

func (e *workflowEngine) quantityOf(t *testing.T, productID uuid.UUID) int {
	product, err := e.products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return product.Quantity
}

func (e *workflowEngine) assertLedgerConsistent(t *testing.T) {
	result, err := e.products.VerifyLedger(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Mismatches)
}

func TestRequestScenario(t *testing.T) {
	e := newWorkflowEngine(t)
	ctx := context.Background()
	p1 := e.createProduct(t, "P1", 15, 2)

	created, intents, err := e.requests.Create(ctx, e.requester, apprequest.CreateInput{
		Items: []request.LineInput{{ProductID: p1.ID, RequestedQty: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, string(request.StatusTransmise), created.Status)
	assert.Equal(t, fmt.Sprintf("COM-%d-00001", time.Now().Year()), created.Number)
	require.Len(t, intents, 1)
	assert.Equal(t, notification.TypeRequestApprovalNeeded, intents[0].Type)

	t.Run("delivery before approval is refused", func(t *testing.T) {
		_, _, err := e.requests.Deliver(ctx, e.storekeeper, created.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
		assert.Equal(t, 15, e.quantityOf(t, p1.ID))
	})

	approved, _, err := e.requests.Approve(ctx, e.finance, created.ID, apprequest.ApproveInput{
		Items: map[uuid.UUID]int{created.Items[0].ID: 8},
	})
	require.NoError(t, err)
	assert.Equal(t, string(request.StatusApprouvee), approved.Status)
	assert.Equal(t, 15, e.quantityOf(t, p1.ID))

	delivered, _, err := e.requests.Deliver(ctx, e.storekeeper, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(request.StatusLivree), delivered.Status)
	assert.Equal(t, 7, e.quantityOf(t, p1.ID))

	entries, err := e.ledgerRepo.FindBySource(ctx, inventory.SourceRequest, created.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.DirectionOut, entries[0].Direction)
	assert.Equal(t, 8, entries[0].Quantity)
	assert.Equal(t, e.storekeeper.ID, entries[0].UserID)

	received, _, err := e.requests.Receive(ctx, e.requester, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(request.StatusReceptionConfirmee), received.Status)

	t.Run("terminal request refuses further transitions", func(t *testing.T) {
		_, _, err := e.requests.Cancel(ctx, e.requester, created.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	e.assertLedgerConsistent(t)
	assert.Equal(t, 2, e.recorder.movements)
}

func TestDirectAdjustNoOpScenario(t *testing.T) {
	e := newWorkflowEngine(t)
	ctx := context.Background()
	p1 := e.createProduct(t, "P1", 7, 0)

	_, _, err := e.adjustments.DirectAdjust(ctx, e.admin, appinv.DirectAdjustInput{
		ProductID:      p1.ID,
		TargetQuantity: 7,
		Reason:         "recount",
	})
	assert.ErrorIs(t, err, shared.ErrNoOp)

	list, err := e.adjustments.List(ctx, appinv.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.Total)

	_, total, err := e.ledgerRepo.FindByProduct(ctx, p1.ID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "only the opening movement")
	assert.Equal(t, 7, e.quantityOf(t, p1.ID))
}

func TestAuditReconciliationScenario(t *testing.T) {
	e := newWorkflowEngine(t)
	ctx := context.Background()
	p1 := e.createProduct(t, "P1", 7, 0)

	audit, err := e.audits.Create(ctx, e.storekeeper, "year end")
	require.NoError(t, err)
	require.Len(t, audit.Items, 1)
	assert.Equal(t, 7, audit.Items[0].SystemQuantity)

	_, err = e.audits.RecordCounts(ctx, e.storekeeper, audit.ID, []appinv.CountInput{{ProductID: p1.ID, CountedQuantity: 5}})
	require.NoError(t, err)
	_, err = e.audits.Complete(ctx, e.storekeeper, audit.ID)
	require.NoError(t, err)

	pending, spawned, intents, err := e.audits.RequestReconciliation(ctx, e.storekeeper, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, string(inventory.AuditStatusReconciliationPending), pending.Status)
	require.Len(t, spawned, 1)
	assert.Equal(t, string(inventory.DirectionOut), spawned[0].Direction)
	assert.Equal(t, 2, spawned[0].Quantity)
	assert.Equal(t, string(inventory.ApprovalStatusPending), spawned[0].Status)
	require.NotNil(t, spawned[0].AuditID)
	assert.Equal(t, audit.ID, *spawned[0].AuditID)
	require.Len(t, intents, 1)
	assert.Equal(t, notification.TypeReconciliationRequest, intents[0].Type)
	assert.Equal(t, 7, e.quantityOf(t, p1.ID))

	_, decided, err := e.adjustments.Decide(ctx, e.finance, spawned[0].ID, appinv.DecisionInput{Decision: inventory.DecisionApprove})
	require.NoError(t, err)
	assert.Len(t, decided.OfType(notification.TypeAuditClosed), 1)
	assert.Equal(t, 5, e.quantityOf(t, p1.ID))

	closed, err := e.audits.GetByID(ctx, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, string(inventory.AuditStatusClosed), closed.Status)

	t.Run("check and close on a closed audit is a no-op", func(t *testing.T) {
		more, err := e.audits.CheckAndClose(ctx, audit.ID)
		require.NoError(t, err)
		assert.Empty(t, more)
	})

	t.Run("decided adjustment cannot be decided again", func(t *testing.T) {
		_, _, err := e.adjustments.Decide(ctx, e.finance, spawned[0].ID, appinv.DecisionInput{Decision: inventory.DecisionReject})
		assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	})

	e.assertLedgerConsistent(t)
}

func TestLedgerInvariantAcrossWorkflows(t *testing.T) {
	e := newWorkflowEngine(t)
	ctx := context.Background()
	p1 := e.createProduct(t, "P1", 3, 1)
	p2 := e.createProduct(t, "P2", 0, 0)

	_, _, err := e.adjustments.DirectAdjust(ctx, e.admin, appinv.DirectAdjustInput{ProductID: p2.ID, TargetQuantity: 9, Reason: "found"})
	require.NoError(t, err)

	pending, intents, err := e.adjustments.AdjustByDelta(ctx, e.storekeeper, appinv.DeltaAdjustInput{
		ProductID: p1.ID, Direction: inventory.DirectionOut, Quantity: 5, Reason: "broken",
	})
	require.NoError(t, err)
	assert.Equal(t, string(inventory.ApprovalStatusPending), pending.Status)
	assert.Len(t, intents.OfType(notification.TypeAdjustmentApprovalNeeded), 1)

	t.Run("approval that would go negative rolls back", func(t *testing.T) {
		_, _, err := e.adjustments.Decide(ctx, e.finance, pending.ID, appinv.DecisionInput{Decision: inventory.DecisionApprove})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		still, err := e.adjustments.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, string(inventory.ApprovalStatusPending), still.Status)
		assert.Equal(t, 3, e.quantityOf(t, p1.ID))
	})

	_, _, err = e.adjustments.AdjustByDelta(ctx, e.admin, appinv.DeltaAdjustInput{
		ProductID: p1.ID, Direction: inventory.DirectionIn, Quantity: 4, Reason: "returned",
	})
	require.NoError(t, err)

	_, _, err = e.adjustments.Decide(ctx, e.finance, pending.ID, appinv.DecisionInput{Decision: inventory.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, 2, e.quantityOf(t, p1.ID))
	assert.Equal(t, 9, e.quantityOf(t, p2.ID))

	e.assertLedgerConsistent(t)
}

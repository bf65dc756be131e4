//go:build integration

package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	apprequest "github.com/stockflow/backend/internal/application/request"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/migration"
	"github.com/stockflow/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresTestDB starts a throwaway postgres and applies the SQL migrations
func newPostgresTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockflow_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	dir, err := migration.FindMigrationsDir("")
	require.NoError(t, err)
	migrator, err := migration.New(sqlDB, dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, migrator.Up())

	return db
}

func TestPostgres_ConcurrentSequenceNumbers(t *testing.T) {
	db := newPostgresTestDB(t)
	scope := persistence.NewGormTransactionScope(db)
	generator := sequence.NewGenerator()
	ctx := context.Background()

	const workers = 25
	numbers := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := scope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
				number, err := generator.Next(ctx, repos.CounterRepo(), sequence.DocTypeRequest)
				if err != nil {
					return err
				}
				numbers <- number
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[int]bool, workers)
	for number := range numbers {
		_, _, n, err := sequence.Parse(number)
		require.NoError(t, err)
		assert.False(t, seen[n], "duplicate number %s", number)
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	for n := 1; n <= workers; n++ {
		assert.True(t, seen[n], "gap at %d", n)
	}
}

func TestPostgres_ConcurrentDeliveries(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	scope := persistence.NewGormTransactionScope(db)
	ledger := appinv.NewStockLedger()
	numbers := sequence.NewGenerator()
	products := persistence.NewGormProductRepository(db)
	productService := appinv.NewProductService(scope, products, persistence.NewGormLedgerRepository(db), ledger, log)
	requestService := apprequest.NewService(scope, persistence.NewGormRequestRepository(db), products,
		persistence.NewGormUserRepository(db), numbers, ledger, log)

	admin := identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin")
	requester := identity.NewActor(uuid.New(), identity.RoleRequester, "Head of IT")
	finance := identity.NewActor(uuid.New(), identity.RoleFinance, "CFO")
	storekeeper := identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Store")

	product, _, err := productService.Create(ctx, admin, appinv.CreateProductInput{
		Name: "Toner", Reference: "TON-01", UnitCost: decimal.NewFromInt(10), InitialQuantity: 15,
	})
	require.NoError(t, err)

	created, _, err := requestService.Create(ctx, requester, apprequest.CreateInput{
		Items: []request.LineInput{{ProductID: product.ID, RequestedQty: 10}},
	})
	require.NoError(t, err)
	_, _, err = requestService.Approve(ctx, finance, created.ID, apprequest.ApproveInput{
		Items: map[uuid.UUID]int{created.Items[0].ID: 8},
	})
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		refused   int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := requestService.Deliver(ctx, storekeeper, created.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrInvalidTransition):
				refused++
			default:
				t.Errorf("unexpected delivery error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, refused)

	reloaded, err := productService.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.Quantity)

	check, err := productService.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.Empty(t, check.Mismatches)
}

func TestPostgres_CrossedMultiLineDeliveries(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	scope := persistence.NewGormTransactionScope(db)
	ledger := appinv.NewStockLedger()
	products := persistence.NewGormProductRepository(db)
	productService := appinv.NewProductService(scope, products, persistence.NewGormLedgerRepository(db), ledger, log)
	requestService := apprequest.NewService(scope, persistence.NewGormRequestRepository(db), products,
		persistence.NewGormUserRepository(db), sequence.NewGenerator(), ledger, log)

	admin := identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin")
	requester := identity.NewActor(uuid.New(), identity.RoleRequester, "Head of IT")
	finance := identity.NewActor(uuid.New(), identity.RoleFinance, "CFO")
	storekeeper := identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Store")

	toner, _, err := productService.Create(ctx, admin, appinv.CreateProductInput{
		Name: "Toner", Reference: "TON-01", UnitCost: decimal.NewFromInt(10), InitialQuantity: 100,
	})
	require.NoError(t, err)
	paper, _, err := productService.Create(ctx, admin, appinv.CreateProductInput{
		Name: "Paper", Reference: "PAP-A4", UnitCost: decimal.NewFromInt(3), InitialQuantity: 100,
	})
	require.NoError(t, err)

	const pairs = 10
	ids := make([]uuid.UUID, 0, 2*pairs)
	for i := 0; i < 2*pairs; i++ {
		first, second := toner.ID, paper.ID
		if i%2 == 1 {
			first, second = paper.ID, toner.ID
		}
		created, _, err := requestService.Create(ctx, requester, apprequest.CreateInput{
			Items: []request.LineInput{
				{ProductID: first, RequestedQty: 2},
				{ProductID: second, RequestedQty: 2},
			},
		})
		require.NoError(t, err)
		_, _, err = requestService.Approve(ctx, finance, created.ID, apprequest.ApproveInput{
			Items: map[uuid.UUID]int{created.Items[0].ID: 2, created.Items[1].ID: 2},
		})
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _, err := requestService.Deliver(ctx, storekeeper, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err, "crossed deliveries must serialize on the product rows")
	}

	for _, id := range []uuid.UUID{toner.ID, paper.ID} {
		reloaded, err := productService.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 100-2*2*pairs, reloaded.Quantity)
	}

	check, err := productService.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.Empty(t, check.Mismatches)
}

func TestPostgres_ConcurrentMovementsNeverGoNegative(t *testing.T) {
	db := newPostgresTestDB(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	scope := persistence.NewGormTransactionScope(db)
	ledger := appinv.NewStockLedger()
	productService := appinv.NewProductService(scope, persistence.NewGormProductRepository(db),
		persistence.NewGormLedgerRepository(db), ledger, log)
	adjustmentService := appinv.NewAdjustmentService(scope, persistence.NewGormAdjustmentRepository(db), ledger, log)

	admin := identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin")
	product, _, err := productService.Create(ctx, admin, appinv.CreateProductInput{
		Name: "Paper", Reference: "PAP-A4", UnitCost: decimal.NewFromInt(3), InitialQuantity: 10,
	})
	require.NoError(t, err)

	const workers = 5
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		applied      int
		insufficient int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := adjustmentService.AdjustByDelta(ctx, admin, appinv.DeltaAdjustInput{
				ProductID: product.ID, Direction: inventory.DirectionOut, Quantity: 3, Reason: "consumed",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				applied++
			case errors.Is(err, shared.ErrInsufficientStock):
				insufficient++
			default:
				t.Errorf("unexpected adjustment error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, applied)
	assert.Equal(t, 2, insufficient)

	reloaded, err := productService.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Quantity)

	check, err := productService.VerifyLedger(ctx)
	require.NoError(t, err)
	assert.Empty(t, check.Mismatches)
}

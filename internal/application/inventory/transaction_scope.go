package inventory

import (
	"context"

	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the workflow repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Aggregate boundary notes:
//   - ProductRepo: the only way to change Product.Quantity is StockLedger.Apply,
//     which locks the row through FindByIDForUpdate before writing.
//   - LedgerRepo: append-only.
//   - CounterRepo: document numbers; an increment is one upsert.
type TransactionalRepositories interface {
	ProductRepo() inventory.ProductRepository
	LedgerRepo() inventory.LedgerRepository
	AdjustmentRepo() inventory.AdjustmentRepository
	ReceiptRepo() inventory.ReceiptRepository
	AuditRepo() inventory.AuditRepository
	RequestRepo() request.Repository
	PurchaseOrderRepo() trade.PurchaseOrderRepository
	CounterRepo() sequence.CounterRepository
	UserRepo() identity.UserRepository
}

// Repositories bundles repository implementations for NoOpTransactionScope
type Repositories struct {
	Products       inventory.ProductRepository
	Ledger         inventory.LedgerRepository
	Adjustments    inventory.AdjustmentRepository
	Receipts       inventory.ReceiptRepository
	Audits         inventory.AuditRepository
	Requests       request.Repository
	PurchaseOrders trade.PurchaseOrderRepository
	Counters       sequence.CounterRepository
	Users          identity.UserRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() inventory.ProductRepository {
	return s.repos.Products
}

// LedgerRepo returns the ledger repository.
func (s *NoOpTransactionScope) LedgerRepo() inventory.LedgerRepository {
	return s.repos.Ledger
}

// AdjustmentRepo returns the stock adjustment repository.
func (s *NoOpTransactionScope) AdjustmentRepo() inventory.AdjustmentRepository {
	return s.repos.Adjustments
}

// ReceiptRepo returns the stock receipt repository.
func (s *NoOpTransactionScope) ReceiptRepo() inventory.ReceiptRepository {
	return s.repos.Receipts
}

// AuditRepo returns the inventory audit repository.
func (s *NoOpTransactionScope) AuditRepo() inventory.AuditRepository {
	return s.repos.Audits
}

// RequestRepo returns the issue request repository.
func (s *NoOpTransactionScope) RequestRepo() request.Repository {
	return s.repos.Requests
}

// PurchaseOrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) PurchaseOrderRepo() trade.PurchaseOrderRepository {
	return s.repos.PurchaseOrders
}

// CounterRepo returns the sequence counter repository.
func (s *NoOpTransactionScope) CounterRepo() sequence.CounterRepository {
	return s.repos.Counters
}

// UserRepo returns the user directory.
func (s *NoOpTransactionScope) UserRepo() identity.UserRepository {
	return s.repos.Users
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

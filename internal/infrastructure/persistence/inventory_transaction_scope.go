package persistence

import (
	"context"

	appinv "github.com/stockflow/backend/internal/application/inventory"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/request"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() inventory.ProductRepository {
	return NewGormProductRepository(r.tx)
}

// LedgerRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() inventory.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// AdjustmentRepo returns the adjustment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AdjustmentRepo() inventory.AdjustmentRepository {
	return NewGormAdjustmentRepository(r.tx)
}

// ReceiptRepo returns the receipt repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ReceiptRepo() inventory.ReceiptRepository {
	return NewGormReceiptRepository(r.tx)
}

// AuditRepo returns the audit repository scoped to the current transaction.
func (r *gormTransactionalRepositories) AuditRepo() inventory.AuditRepository {
	return NewGormAuditRepository(r.tx)
}

// RequestRepo returns the issue request repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RequestRepo() request.Repository {
	return NewGormRequestRepository(r.tx)
}

// PurchaseOrderRepo returns the purchase order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PurchaseOrderRepo() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// CounterRepo returns the sequence counter repository scoped to the current transaction.
func (r *gormTransactionalRepositories) CounterRepo() sequence.CounterRepository {
	return NewGormCounterRepository(r.tx)
}

// UserRepo returns the user directory scoped to the current transaction.
func (r *gormTransactionalRepositories) UserRepo() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

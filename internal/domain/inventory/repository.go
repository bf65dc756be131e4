package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDForUpdate loads the product and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
	FindByReference(ctx context.Context, reference string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, int64, error)
	// FindAllOrdered returns every product, used for audit snapshots
	FindAllOrdered(ctx context.Context) ([]Product, error)
	// FindBelowMinStock returns products with quantity strictly under min stock
	FindBelowMinStock(ctx context.Context) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	// UpdateQuantity persists a quantity computed by ApplyMovement
	UpdateQuantity(ctx context.Context, product *Product) error
}

// LedgerRepository is append-only
type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]LedgerEntry, int64, error)
	FindBySource(ctx context.Context, source Source, sourceID uuid.UUID) ([]LedgerEntry, error)
	// Balances compares quantity against the signed ledger sum for every product
	Balances(ctx context.Context) ([]LedgerBalance, error)
}

// AdjustmentRepository defines the interface for stock adjustment persistence
type AdjustmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)
	FindByAudit(ctx context.Context, auditID uuid.UUID) ([]StockAdjustment, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]StockAdjustment, int64, error)
	Save(ctx context.Context, adjustment *StockAdjustment) error
}

// ReceiptRepository defines the interface for stock receipt persistence
type ReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockReceipt, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockReceipt, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]StockReceipt, int64, error)
	Save(ctx context.Context, receipt *StockReceipt) error
}

// AuditRepository defines the interface for inventory audit persistence
type AuditRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryAudit, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*InventoryAudit, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]InventoryAudit, int64, error)
	// Save persists the audit with its items
	Save(ctx context.Context, audit *InventoryAudit) error
}

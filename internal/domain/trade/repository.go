package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	// FindByID finds a purchase order by ID with its items
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindByIDForUpdate locks the order row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)

	// FindAll finds all purchase orders; honours the "status" filter
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, int64, error)

	// OpenProductIDs returns the products present on DRAFT or PENDING_APPROVAL orders
	OpenProductIDs(ctx context.Context) (map[uuid.UUID]bool, error)

	// Save creates or updates a purchase order with its items
	Save(ctx context.Context, order *PurchaseOrder) error

	// Delete removes a purchase order and its items
	Delete(ctx context.Context, id uuid.UUID) error
}

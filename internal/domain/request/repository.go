package request

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// Repository defines the interface for request persistence.
// Requests are always returned with their items and approval log.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Request, error)
	// FindByIDForUpdate locks the request row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Request, error)
	FindByNumber(ctx context.Context, number string) (*Request, error)
	// FindAll honours the "status" and "requester_id" filters
	FindAll(ctx context.Context, filter shared.Filter) ([]Request, int64, error)
	// Save persists the request, its items and any new approval log entries
	Save(ctx context.Context, r *Request) error
}

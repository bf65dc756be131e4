package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ToFilter converts the list filter to a repository filter
func (f ListFilter) ToFilter() shared.Filter {
	filter := shared.DefaultFilter()
	filter.Page = f.Page
	filter.PageSize = f.PageSize
	if f.Status != "" {
		filter.Filters["status"] = f.Status
	}
	return filter.Normalize()
}

// ProductService handles product catalogue operations and ledger inspection
type ProductService struct {
	scope      TransactionScope
	products   inventory.ProductRepository
	ledgerRepo inventory.LedgerRepository
	ledger     *StockLedger
	logger     *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	scope TransactionScope,
	products inventory.ProductRepository,
	ledgerRepo inventory.LedgerRepository,
	ledger *StockLedger,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		scope:      scope,
		products:   products,
		ledgerRepo: ledgerRepo,
		ledger:     ledger,
		logger:     logger,
	}
}

// Create adds a product. Opening stock is booked as an IN movement so the
// ledger reconciles with the quantity from the start.
func (s *ProductService) Create(ctx context.Context, actor identity.Actor, input CreateProductInput) (*ProductResponse, notification.List, error) {
	if !actor.HasRole(identity.RoleAdmin, identity.RoleStorekeeper) {
		return nil, nil, shared.NewPermissionError("Only an administrator or a storekeeper can create products")
	}
	if input.InitialQuantity < 0 {
		return nil, nil, shared.NewValidationError("INVALID_QUANTITY", "Initial quantity cannot be negative")
	}
	product, err := inventory.NewProduct(input.Name, input.Reference, input.Unit, input.MinStock, input.UnitCost)
	if err != nil {
		return nil, nil, err
	}

	var intents notification.List
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.ProductRepo().FindByReference(ctx, product.Reference)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if existing != nil {
			return shared.NewValidationError("DUPLICATE_REFERENCE", fmt.Sprintf("Product reference %s already exists", product.Reference))
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		if input.InitialQuantity == 0 {
			return nil
		}
		_, more, err := s.ledger.Apply(ctx, repos, Movement{
			ProductID: product.ID,
			ActorID:   actor.ID,
			Direction: inventory.DirectionIn,
			Quantity:  input.InitialQuantity,
			Source:    inventory.SourceAdjustment,
		})
		if err != nil {
			return err
		}
		intents.Add(more...)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Re-read so the response carries the quantity written by the ledger
	saved, err := s.products.FindByID(ctx, product.ID)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Product created",
		zap.String("product_id", saved.ID.String()),
		zap.String("reference", saved.Reference),
		zap.Int("quantity", saved.Quantity))
	response := ToProductResponse(saved)
	return &response, intents, nil
}

// Update changes descriptive fields; stock is never touched here
func (s *ProductService) Update(ctx context.Context, actor identity.Actor, id uuid.UUID, input UpdateProductInput) (*ProductResponse, error) {
	if !actor.HasRole(identity.RoleAdmin, identity.RoleStorekeeper) {
		return nil, shared.NewPermissionError("Only an administrator or a storekeeper can update products")
	}
	var updated *inventory.Product
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := product.UpdateDetails(input.Name, input.Unit, input.MinStock, input.UnitCost); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return fmt.Errorf("failed to save product: %w", err)
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(updated)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with pagination
func (s *ProductService) List(ctx context.Context, filter ListFilter) (*shared.Paginated[ProductResponse], error) {
	f := filter.ToFilter()
	f.Filters = map[string]any{}
	products, total, err := s.products.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// ListBelowMinStock returns products that need replenishment
func (s *ProductService) ListBelowMinStock(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.products.FindBelowMinStock(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}
	return items, nil
}

// LedgerHistory returns the movements of one product, newest first
func (s *ProductService) LedgerHistory(ctx context.Context, productID uuid.UUID, filter ListFilter) (*shared.Paginated[LedgerEntryResponse], error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	f := filter.ToFilter()
	entries, total, err := s.ledgerRepo.FindByProduct(ctx, productID, f)
	if err != nil {
		return nil, err
	}
	items := make([]LedgerEntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, ToLedgerEntryResponse(&entries[i]))
	}
	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// VerifyLedger recomputes IN minus OUT for every product and reports the
// products whose stored quantity disagrees.
func (s *ProductService) VerifyLedger(ctx context.Context) (*LedgerCheckResult, error) {
	balances, err := s.ledgerRepo.Balances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute ledger balances: %w", err)
	}
	result := &LedgerCheckResult{Checked: len(balances), Mismatches: []inventory.LedgerBalance{}}
	for _, b := range balances {
		if b.Consistent() {
			continue
		}
		result.Mismatches = append(result.Mismatches, b)
		s.logger.Warn("Ledger mismatch",
			zap.String("product_id", b.ProductID.String()),
			zap.String("reference", b.Reference),
			zap.Int("quantity", b.Quantity),
			zap.Int("ledger_sum", b.LedgerSum))
	}
	return result, nil
}

package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stockflow/backend/internal/domain/shared"
)

// StockStatus is the derived availability of a product
type StockStatus string

const (
	StockStatusAvailable  StockStatus = "AVAILABLE"
	StockStatusCritical   StockStatus = "CRITICAL"
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// Product is the stock-holding aggregate root.
// Quantity is a denormalized counter kept in lockstep with the ledger; it is
// changed only through ApplyMovement.
type Product struct {
	shared.BaseAggregateRoot
	Name      string
	Reference string
	Unit      string
	Quantity  int
	MinStock  int
	UnitCost  decimal.Decimal
}

// NewProduct creates a product with zero stock.
// Opening stock is recorded as a movement so the ledger reconciles from day one.
func NewProduct(name, reference, unit string, minStock int, unitCost decimal.Decimal) (*Product, error) {
	name = strings.TrimSpace(name)
	reference = strings.TrimSpace(reference)
	if name == "" {
		return nil, shared.NewValidationError("INVALID_NAME", "Product name cannot be empty")
	}
	if reference == "" {
		return nil, shared.NewValidationError("INVALID_REFERENCE", "Product reference cannot be empty")
	}
	if minStock < 0 {
		return nil, shared.NewValidationError("INVALID_MIN_STOCK", "Minimum stock cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewValidationError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}
	if unit == "" {
		unit = "pcs"
	}
	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Reference:         reference,
		Unit:              unit,
		Quantity:          0,
		MinStock:          minStock,
		UnitCost:          unitCost,
	}, nil
}

// ApplyMovement changes the on-hand quantity and returns the balances around the change.
// It refuses any change that would drive the quantity below zero.
func (p *Product) ApplyMovement(direction Direction, quantity int) (before, after int, err error) {
	if !direction.IsValid() {
		return 0, 0, shared.NewValidationError("INVALID_DIRECTION", "Unknown movement direction: "+string(direction))
	}
	if quantity <= 0 {
		return 0, 0, shared.NewValidationError("INVALID_QUANTITY", "Movement quantity must be positive")
	}
	before = p.Quantity
	after = before + direction.Sign()*quantity
	if after < 0 {
		return before, before, shared.NewInsufficientStockError(p.Reference, before, quantity)
	}
	p.Quantity = after
	p.Touch()
	return before, after, nil
}

// EnsureAvailable checks stock without changing it
func (p *Product) EnsureAvailable(quantity int) error {
	if p.Quantity < quantity {
		return shared.NewInsufficientStockError(p.Reference, p.Quantity, quantity)
	}
	return nil
}

// IsLowStock reports whether the quantity reached the reorder threshold
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// IsBelowMinStock reports the strict reorder condition used by auto-generation
func (p *Product) IsBelowMinStock() bool {
	return p.Quantity < p.MinStock
}

// StockStatus derives availability from quantity and threshold
func (p *Product) StockStatus() StockStatus {
	switch {
	case p.Quantity <= 0:
		return StockStatusOutOfStock
	case p.Quantity <= p.MinStock:
		return StockStatusCritical
	default:
		return StockStatusAvailable
	}
}

// StockValue returns quantity times unit cost
func (p *Product) StockValue() decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// UpdateDetails changes descriptive fields; quantity is not touched
func (p *Product) UpdateDetails(name, unit string, minStock int, unitCost decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("INVALID_NAME", "Product name cannot be empty")
	}
	if minStock < 0 {
		return shared.NewValidationError("INVALID_MIN_STOCK", "Minimum stock cannot be negative")
	}
	if unitCost.IsNegative() {
		return shared.NewValidationError("INVALID_UNIT_COST", "Unit cost cannot be negative")
	}
	p.Name = name
	if unit != "" {
		p.Unit = unit
	}
	p.MinStock = minStock
	p.UnitCost = unitCost
	p.Touch()
	return nil
}

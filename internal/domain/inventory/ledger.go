package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// Direction tells whether a movement adds or removes stock
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// IsValid checks if the direction is known
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// Sign returns +1 for IN and -1 for OUT
func (d Direction) Sign() int {
	if d == DirectionOut {
		return -1
	}
	return 1
}

// DirectionOf returns the direction and magnitude of a signed delta
func DirectionOf(delta int) (Direction, int) {
	if delta < 0 {
		return DirectionOut, -delta
	}
	return DirectionIn, delta
}

// Source tags which workflow produced a movement
type Source string

const (
	SourceRequest    Source = "REQUEST"
	SourceAdjustment Source = "ADJUSTMENT"
	SourceReceipt    Source = "RECEIPT"
)

// IsValid checks if the source is known
func (s Source) IsValid() bool {
	switch s {
	case SourceRequest, SourceAdjustment, SourceReceipt:
		return true
	}
	return false
}

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}

// LedgerEntry is one immutable stock movement.
// Entries are appended, never updated or deleted.
type LedgerEntry struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	UserID        uuid.UUID
	Direction     Direction
	Source        Source
	SourceID      *uuid.UUID // document that caused the movement
	Quantity      int
	BalanceBefore int
	BalanceAfter  int
	CreatedAt     time.Time
}

// NewLedgerEntry validates and builds a ledger entry
func NewLedgerEntry(productID, userID uuid.UUID, direction Direction, source Source, sourceID *uuid.UUID, quantity, before, after int) (*LedgerEntry, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_USER", "Acting user cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewValidationError("INVALID_DIRECTION", "Unknown movement direction: "+string(direction))
	}
	if !source.IsValid() {
		return nil, shared.NewValidationError("INVALID_SOURCE", "Unknown movement source: "+string(source))
	}
	if quantity <= 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Ledger quantity must be positive")
	}
	if after-before != direction.Sign()*quantity {
		return nil, shared.NewValidationError("INVALID_BALANCE", "Balance change does not match movement")
	}
	return &LedgerEntry{
		ID:            uuid.New(),
		ProductID:     productID,
		UserID:        userID,
		Direction:     direction,
		Source:        source,
		SourceID:      sourceID,
		Quantity:      quantity,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     time.Now(),
	}, nil
}

// Signed returns the quantity with the direction applied
func (e *LedgerEntry) Signed() int {
	return e.Direction.Sign() * e.Quantity
}

// LedgerBalance compares the ledger sum with the stored quantity of one product
type LedgerBalance struct {
	ProductID uuid.UUID
	Reference string
	Quantity  int
	LedgerSum int
}

// Consistent reports whether the two agree
func (b LedgerBalance) Consistent() bool {
	return b.Quantity == b.LedgerSum
}

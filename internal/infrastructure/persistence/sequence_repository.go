package persistence

import (
	"context"
	"fmt"

	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCounterRepository implements CounterRepository with a single upsert per increment.
// The row lock taken by ON CONFLICT DO UPDATE serialises concurrent callers, so
// numbers are gap-free within committed transactions.
type GormCounterRepository struct {
	db *gorm.DB
}

// NewGormCounterRepository creates a new GormCounterRepository
func NewGormCounterRepository(db *gorm.DB) *GormCounterRepository {
	return &GormCounterRepository{db: db}
}

// Increment bumps the (docType, year) counter and returns the new value
func (r *GormCounterRepository) Increment(ctx context.Context, docType sequence.DocType, year int) (int, error) {
	var last []int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter := models.SequenceCounterModel{DocType: string(docType), Year: year, LastNumber: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "doc_type"}, {Name: "year"}},
			DoUpdates: clause.Assignments(map[string]any{
				"last_number": gorm.Expr("sequence_counters.last_number + 1"),
			}),
		}).Create(&counter).Error; err != nil {
			return err
		}
		return tx.Model(&models.SequenceCounterModel{}).
			Where("doc_type = ? AND year = ?", string(docType), year).
			Pluck("last_number", &last).Error
	})
	if err != nil {
		return 0, err
	}
	if len(last) != 1 {
		return 0, fmt.Errorf("counter %s/%d missing after upsert", docType, year)
	}
	return last[0], nil
}

// Ensure GormCounterRepository implements CounterRepository
var _ sequence.CounterRepository = (*GormCounterRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/inventory"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerRepository implements LedgerRepository using GORM.
// It only ever inserts; there is no update or delete path.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts a ledger entry
func (r *GormLedgerRepository) Append(ctx context.Context, entry *inventory.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(models.LedgerEntryModelFromDomain(entry)).Error
}

// FindByProduct returns the movements of one product, newest first by default
func (r *GormLedgerRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("product_id = ?", productID).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entryModels []models.LedgerEntryModel
	if err := paginate(query, filter, LedgerSortFields, "created_at").Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}
	return toLedgerEntries(entryModels), total, nil
}

// FindBySource returns the movements booked by one document in insertion order
func (r *GormLedgerRepository) FindBySource(ctx context.Context, source inventory.Source, sourceID uuid.UUID) ([]inventory.LedgerEntry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("source = ? AND source_id = ?", string(source), sourceID).
		Order("created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}
	return toLedgerEntries(entryModels), nil
}

// ledgerBalanceRow is the scan target of Balances
type ledgerBalanceRow struct {
	ProductID uuid.UUID
	Reference string
	Quantity  int
	LedgerSum int
}

// Balances returns, for every product, the stored quantity next to the signed ledger sum
func (r *GormLedgerRepository) Balances(ctx context.Context) ([]inventory.LedgerBalance, error) {
	var rows []ledgerBalanceRow
	err := r.db.WithContext(ctx).
		Table("products AS p").
		Select(`p.id AS product_id, p.reference AS reference, p.quantity AS quantity,
			COALESCE(SUM(CASE WHEN m.direction = 'IN' THEN m.quantity ELSE -m.quantity END), 0) AS ledger_sum`).
		Joins("LEFT JOIN stock_movements AS m ON m.product_id = p.id").
		Group("p.id, p.reference, p.quantity").
		Order("p.reference ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	balances := make([]inventory.LedgerBalance, len(rows))
	for i, row := range rows {
		balances[i] = inventory.LedgerBalance{
			ProductID: row.ProductID,
			Reference: row.Reference,
			Quantity:  row.Quantity,
			LedgerSum: row.LedgerSum,
		}
	}
	return balances, nil
}

func toLedgerEntries(entryModels []models.LedgerEntryModel) []inventory.LedgerEntry {
	entries := make([]inventory.LedgerEntry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries
}

// Ensure GormLedgerRepository implements LedgerRepository
var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)

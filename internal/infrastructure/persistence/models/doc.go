// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: shared columns (BaseModel, AggregateModel, ApprovalColumns)
// - inventory.go: products, stock movements, adjustments, receipts, audits
// - request.go: issue requests with their items and decision log
// - trade.go: purchase orders and their lines
// - identity.go: directory users
// - sequence.go: document number counters
// - notification.go: in-app inbox entries
package models

// All returns every persistence model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&UserModel{},
		&ProductModel{},
		&LedgerEntryModel{},
		&StockAdjustmentModel{},
		&StockReceiptModel{},
		&InventoryAuditModel{},
		&InventoryAuditItemModel{},
		&RequestModel{},
		&RequestItemModel{},
		&RequestApprovalModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&SequenceCounterModel{},
		&NotificationModel{},
	}
}

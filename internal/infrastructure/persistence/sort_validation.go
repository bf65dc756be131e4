package persistence

import (
	"strings"

	"github.com/stockflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// paginate applies whitelisted ordering and the page window. A secondary
// order on id keeps pages stable when the sort column has ties.
func paginate(query *gorm.DB, filter shared.Filter, allowedFields map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowedFields, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir)).Order("id")
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}
	return query
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"reference":  true,
	"quantity":   true,
	"min_stock":  true,
	"unit_cost":  true,
}

// LedgerSortFields contains allowed sort fields for stock movements
var LedgerSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"quantity":       true,
	"direction":      true,
	"source":         true,
	"balance_after":  true,
	"balance_before": true,
}

// AdjustmentSortFields contains allowed sort fields for stock adjustments
var AdjustmentSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"status":     true,
	"quantity":   true,
	"decided_at": true,
}

// ReceiptSortFields contains allowed sort fields for stock receipts
var ReceiptSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"status":        true,
	"quantity":      true,
	"supplier_name": true,
	"decided_at":    true,
}

// AuditSortFields contains allowed sort fields for inventory audits
var AuditSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"audit_number": true,
	"status":       true,
	"completed_at": true,
	"closed_at":    true,
}

// RequestSortFields contains allowed sort fields for issue requests
var RequestSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"number":       true,
	"status":       true,
	"approved_at":  true,
	"delivered_at": true,
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"supplier":     true,
	"status":       true,
	"total_amount": true,
	"approved_at":  true,
	"ordered_at":   true,
	"closed_at":    true,
}

// NotificationSortFields contains allowed sort fields for inbox entries
var NotificationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"is_read":    true,
	"type":       true,
	"entity_id":  true,
}

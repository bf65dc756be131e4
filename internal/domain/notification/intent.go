// Package notification describes who should be told about a workflow transition.
// Delivery is someone else's job: the engine only produces intents.
package notification

import (
	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
)

// Type identifies the kind of notification
type Type string

const (
	TypeLowStockAlert             Type = "low_stock_alert"
	TypeRequestApprovalNeeded     Type = "daf_approval_request"
	TypeRequestDecision           Type = "request_decision"
	TypeDeliveryReady             Type = "delivery_ready"
	TypeRequestDelivered          Type = "request_delivered"
	TypeRequestReceived           Type = "request_received"
	TypeRequestCancelled          Type = "request_cancelled"
	TypeReceptionIssue            Type = "reception_issue"
	TypeDisputeResolved           Type = "dispute_resolved"
	TypeAdjustmentApprovalNeeded  Type = "adjustment_approval_request"
	TypeAdjustmentDecision        Type = "adjustment_decision"
	TypeReceiptApprovalNeeded     Type = "receipt_approval_request"
	TypeReceiptDecision           Type = "receipt_decision"
	TypePurchaseOrderCreated      Type = "purchase_order_created"
	TypePurchaseOrderSubmitted    Type = "purchase_order_submitted"
	TypePurchaseOrderDecision     Type = "purchase_order_decision"
	TypePurchaseOrderOrdered      Type = "purchase_order_ordered"
	TypePurchaseOrderClosed       Type = "purchase_order_closed"
	TypePurchaseOrderCancelled    Type = "purchase_order_cancelled"
	TypeReconciliationRequest     Type = "reconciliation_request"
	TypeAuditClosed               Type = "audit_closed"
	TypePurchaseOrderAutoGenerate Type = "purchase_order_auto_generated"
)

// Intent asks the notification layer to tell a set of users something.
// Either TargetRoles or TargetUserIDs (or both) is set.
type Intent struct {
	Type          Type
	Message       string
	TargetRoles   []identity.Role
	TargetUserIDs []uuid.UUID
	EntityType    string
	EntityID      uuid.UUID
}

// ToRoles builds an intent addressed to every user holding one of the roles
func ToRoles(t Type, message string, roles ...identity.Role) Intent {
	return Intent{Type: t, Message: message, TargetRoles: roles}
}

// ToUsers builds an intent addressed to specific users
func ToUsers(t Type, message string, userIDs ...uuid.UUID) Intent {
	return Intent{Type: t, Message: message, TargetUserIDs: userIDs}
}

// About links the intent to the entity it concerns
func (i Intent) About(entityType string, entityID uuid.UUID) Intent {
	i.EntityType = entityType
	i.EntityID = entityID
	return i
}

// HasTargets reports whether the intent addresses anyone
func (i Intent) HasTargets() bool {
	return len(i.TargetRoles) > 0 || len(i.TargetUserIDs) > 0
}

// List accumulates intents produced during one operation
type List []Intent

// Add appends intents
func (l *List) Add(intents ...Intent) {
	*l = append(*l, intents...)
}

// OfType returns the intents with the given type
func (l List) OfType(t Type) List {
	var out List
	for _, i := range l {
		if i.Type == t {
			out = append(out, i)
		}
	}
	return out
}

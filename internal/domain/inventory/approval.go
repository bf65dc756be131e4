package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/shared"
)

// ApprovalStatus is the two-step approval state shared by adjustments and receipts
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid ApprovalStatus
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of ApprovalStatus
func (s ApprovalStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further decision is possible
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalStatusApproved || s == ApprovalStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s ApprovalStatus) CanTransitionTo(target ApprovalStatus) bool {
	return s == ApprovalStatusPending && target.IsTerminal()
}

// Decision is the approver's verdict
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// IsValid checks if the decision is known
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// ParseDecision accepts the verdict case-insensitively
func ParseDecision(s string) (Decision, error) {
	d := Decision(strings.ToUpper(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", shared.NewValidationError("INVALID_DECISION", "Decision must be APPROVE or REJECT")
	}
	return d, nil
}

// Target returns the status a decision leads to
func (d Decision) Target() ApprovalStatus {
	if d == DecisionApprove {
		return ApprovalStatusApproved
	}
	return ApprovalStatusRejected
}

// approvalState is embedded by every entity that goes through the two-step flow
type approvalState struct {
	Status          ApprovalStatus
	RequestedByID   uuid.UUID
	ApprovedByID    *uuid.UUID
	DecidedAt       *time.Time
	DecisionComment string
}

// decide moves a pending entity to its terminal status
func (a *approvalState) decide(entity string, approverID uuid.UUID, decision Decision, comment string) error {
	if !decision.IsValid() {
		return shared.NewValidationError("INVALID_DECISION", "Decision must be APPROVE or REJECT")
	}
	target := decision.Target()
	if !a.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError(entity, a.Status, target)
	}
	now := time.Now()
	a.Status = target
	a.ApprovedByID = &approverID
	a.DecidedAt = &now
	a.DecisionComment = strings.TrimSpace(comment)
	return nil
}

// selfApprove marks an administrator-initiated entity as approved at creation
func (a *approvalState) selfApprove(approverID uuid.UUID) {
	now := time.Now()
	a.Status = ApprovalStatusApproved
	a.ApprovedByID = &approverID
	a.DecidedAt = &now
}

package request

import (
	"strings"

	"github.com/stockflow/backend/internal/domain/shared"
)

// Status represents the lifecycle state of an issue request
type Status string

const (
	StatusTransmise          Status = "TRANSMISE"
	StatusApprouvee          Status = "APPROUVEE"
	StatusRejetee            Status = "REJETEE"
	StatusLivree             Status = "LIVREE_PAR_MAGASINIER"
	StatusReceptionConfirmee Status = "RECEPTION_CONFIRMEE"
	StatusLitige             Status = "LITIGE_RECEPTION"
	StatusAnnulee            Status = "ANNULEE"
)

// AllStatuses lists every request status
var AllStatuses = []Status{
	StatusTransmise, StatusApprouvee, StatusRejetee, StatusLivree,
	StatusReceptionConfirmee, StatusLitige, StatusAnnulee,
}

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusTransmise, StatusApprouvee, StatusRejetee, StatusLivree,
		StatusReceptionConfirmee, StatusLitige, StatusAnnulee:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the request is closed for good
func (s Status) IsTerminal() bool {
	return s == StatusRejetee || s == StatusAnnulee || s == StatusReceptionConfirmee
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusTransmise:
		return target == StatusApprouvee || target == StatusRejetee || target == StatusAnnulee
	case StatusApprouvee:
		return target == StatusLivree
	case StatusLivree:
		return target == StatusReceptionConfirmee || target == StatusLitige
	case StatusLitige:
		return target == StatusLitige || target == StatusReceptionConfirmee || target == StatusRejetee
	case StatusRejetee, StatusAnnulee, StatusReceptionConfirmee:
		return false // Terminal states
	}
	return false
}

// HasDeliveryNote reports whether goods have left the store for this request
func (s Status) HasDeliveryNote() bool {
	return s == StatusLivree || s == StatusReceptionConfirmee || s == StatusLitige
}

// DisputeReason classifies a reception issue on one item
type DisputeReason string

const (
	DisputeReasonQuantiteIncorrecte DisputeReason = "QUANTITE_INCORRECTE"
	DisputeReasonArticleEndommage   DisputeReason = "ARTICLE_ENDOMMAGE"
	DisputeReasonMauvaisArticle     DisputeReason = "MAUVAIS_ARTICLE"
	DisputeReasonAutre              DisputeReason = "AUTRE"
)

// IsValid checks if the reason is known
func (r DisputeReason) IsValid() bool {
	switch r {
	case DisputeReasonQuantiteIncorrecte, DisputeReasonArticleEndommage, DisputeReasonMauvaisArticle, DisputeReasonAutre:
		return true
	}
	return false
}

// String returns the string representation of DisputeReason
func (r DisputeReason) String() string {
	return string(r)
}

// DisputeStatus is the per-item dispute sub-state
type DisputeStatus string

const (
	DisputeStatusNone             DisputeStatus = "NONE"
	DisputeStatusReported         DisputeStatus = "REPORTED"
	DisputeStatusResolvedApproved DisputeStatus = "RESOLVED_APPROVED"
	DisputeStatusResolvedRejected DisputeStatus = "RESOLVED_REJECTED"
)

// IsValid checks if the dispute status is known
func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusNone, DisputeStatusReported, DisputeStatusResolvedApproved, DisputeStatusResolvedRejected:
		return true
	}
	return false
}

// String returns the string representation of DisputeStatus
func (s DisputeStatus) String() string {
	return string(s)
}

// DisputeDecision is the approver's verdict on reported items
type DisputeDecision string

const (
	DisputeDecisionApprove DisputeDecision = "RESOLVE_APPROVE"
	DisputeDecisionReject  DisputeDecision = "RESOLVE_REJECT"
)

// ParseDisputeDecision accepts the verdict case-insensitively
func ParseDisputeDecision(s string) (DisputeDecision, error) {
	d := DisputeDecision(strings.ToUpper(strings.TrimSpace(s)))
	if d != DisputeDecisionApprove && d != DisputeDecisionReject {
		return "", shared.NewValidationError("INVALID_DECISION", "Decision must be RESOLVE_APPROVE or RESOLVE_REJECT")
	}
	return d, nil
}

// ApprovalDecision is the kind of entry in a request's approval log
type ApprovalDecision string

const (
	ApprovalDecisionApprouve             ApprovalDecision = "APPROUVE"
	ApprovalDecisionRejete               ApprovalDecision = "REJETE"
	ApprovalDecisionLitigeResoluApprouve ApprovalDecision = "LITIGE_RESOLU_APPROUVE"
	ApprovalDecisionLitigeResoluRejete   ApprovalDecision = "LITIGE_RESOLU_REJETE"
)

// String returns the string representation of ApprovalDecision
func (d ApprovalDecision) String() string {
	return string(d)
}

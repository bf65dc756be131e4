package request

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	requester  = identity.NewActor(uuid.New(), identity.RoleRequester, "Chef")
	otherChef  = identity.NewActor(uuid.New(), identity.RoleRequester, "Other Chef")
	approver   = identity.NewActor(uuid.New(), identity.RoleFinance, "Daf")
	storekeep  = identity.NewActor(uuid.New(), identity.RoleStorekeeper, "Store")
	admin      = identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin")
	observer   = identity.NewActor(uuid.New(), identity.RoleObserver, "Observer")
	everyActor = []identity.Actor{requester, otherChef, approver, storekeep, admin, observer}
)

func newTestRequest(t *testing.T, quantities ...int) *Request {
	t.Helper()
	lines := make([]LineInput, 0, len(quantities))
	for _, q := range quantities {
		lines = append(lines, LineInput{ProductID: uuid.New(), RequestedQty: q})
	}
	r, err := New("COM-2025-00001", requester, "", lines)
	require.NoError(t, err)
	return r
}

func approveAll(t *testing.T, r *Request) {
	t.Helper()
	decisions := make(map[uuid.UUID]int)
	for _, item := range r.Items {
		decisions[item.ID] = item.RequestedQty
	}
	require.NoError(t, r.Approve(approver, decisions, ""))
}

func deliveredRequest(t *testing.T, quantities ...int) *Request {
	t.Helper()
	r := newTestRequest(t, quantities...)
	approveAll(t, r)
	_, err := r.Deliver(storekeep)
	require.NoError(t, err)
	return r
}

func assertInvalidTransition(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition), "expected invalid transition, got %v", err)
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusTransmise, StatusApprouvee, true},
		{StatusTransmise, StatusRejetee, true},
		{StatusTransmise, StatusAnnulee, true},
		{StatusTransmise, StatusLivree, false},
		{StatusApprouvee, StatusLivree, true},
		{StatusApprouvee, StatusAnnulee, false},
		{StatusLivree, StatusReceptionConfirmee, true},
		{StatusLivree, StatusLitige, true},
		{StatusLivree, StatusRejetee, false},
		{StatusLitige, StatusLitige, true},
		{StatusLitige, StatusReceptionConfirmee, true},
		{StatusLitige, StatusRejetee, true},
		{StatusReceptionConfirmee, StatusLitige, false},
		{StatusRejetee, StatusApprouvee, false},
		{StatusAnnulee, StatusTransmise, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("creates transmitted request", func(t *testing.T) {
		r := newTestRequest(t, 10, 3)
		assert.Equal(t, StatusTransmise, r.Status)
		assert.Equal(t, requester.ID, r.RequesterID)
		require.Len(t, r.Items, 2)
		assert.Equal(t, 1, r.Items[0].Position)
		assert.Equal(t, DisputeStatusNone, r.Items[1].DisputeStatus)
		assert.Nil(t, r.Items[0].ApprovedQty)
	})

	t.Run("rejects non requester role", func(t *testing.T) {
		_, err := New("COM-2025-00001", storekeep, "", []LineInput{{ProductID: uuid.New(), RequestedQty: 1}})
		assertInvalidTransition(t, err)
		assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	})

	t.Run("rejects empty items", func(t *testing.T) {
		_, err := New("COM-2025-00001", requester, "", nil)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects non positive quantity", func(t *testing.T) {
		_, err := New("COM-2025-00001", requester, "", []LineInput{{ProductID: uuid.New(), RequestedQty: 0}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects duplicate product", func(t *testing.T) {
		p := uuid.New()
		_, err := New("COM-2025-00001", requester, "", []LineInput{{ProductID: p, RequestedQty: 1}, {ProductID: p, RequestedQty: 2}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestRequest_Approve(t *testing.T) {
	t.Run("sets approved quantities and logs the decision", func(t *testing.T) {
		r := newTestRequest(t, 10)
		err := r.Approve(approver, map[uuid.UUID]int{r.Items[0].ID: 8}, "ok")
		require.NoError(t, err)
		assert.Equal(t, StatusApprouvee, r.Status)
		require.NotNil(t, r.Items[0].ApprovedQty)
		assert.Equal(t, 8, *r.Items[0].ApprovedQty)
		assert.Equal(t, approver.ID, *r.ApprovedByID)
		require.Len(t, r.Approvals, 1)
		assert.Equal(t, ApprovalDecisionApprouve, r.Approvals[0].Decision)
	})

	t.Run("items left out stay undecided", func(t *testing.T) {
		r := newTestRequest(t, 10, 5)
		err := r.Approve(approver, map[uuid.UUID]int{r.Items[0].ID: 8}, "")
		require.NoError(t, err)
		assert.Equal(t, StatusApprouvee, r.Status)
		require.NotNil(t, r.Items[0].ApprovedQty)
		assert.Nil(t, r.Items[1].ApprovedQty)

		delivered, err := r.Deliver(storekeep)
		require.NoError(t, err)
		require.Len(t, delivered, 1)
		assert.Equal(t, r.Items[0].ID, delivered[0].ID)
	})

	t.Run("approved above requested is refused", func(t *testing.T) {
		r := newTestRequest(t, 10)
		err := r.Approve(approver, map[uuid.UUID]int{r.Items[0].ID: 11}, "")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("foreign item is refused", func(t *testing.T) {
		r := newTestRequest(t, 10)
		err := r.Approve(approver, map[uuid.UUID]int{r.Items[0].ID: 1, uuid.New(): 1}, "")
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("zero approved is allowed", func(t *testing.T) {
		r := newTestRequest(t, 10, 4)
		err := r.Approve(approver, map[uuid.UUID]int{r.Items[0].ID: 0, r.Items[1].ID: 4}, "")
		require.NoError(t, err)
		assert.Len(t, r.DeliveredItems(), 1)
	})
}

func TestRequest_RejectAndCancel(t *testing.T) {
	r := newTestRequest(t, 1)
	require.NoError(t, r.Reject(approver, "budget"))
	assert.Equal(t, StatusRejetee, r.Status)
	assert.Equal(t, ApprovalDecisionRejete, r.Approvals[0].Decision)
	assert.Equal(t, "budget", r.Approvals[0].Comment)

	r = newTestRequest(t, 1)
	assertInvalidTransition(t, r.Cancel(otherChef))
	require.NoError(t, r.Cancel(requester))
	assert.Equal(t, StatusAnnulee, r.Status)
	assertInvalidTransition(t, r.Cancel(requester))
}

func TestRequest_Deliver(t *testing.T) {
	r := newTestRequest(t, 10, 2)
	require.NoError(t, r.Approve(approver, map[uuid.UUID]int{r.Items[0].ID: 8, r.Items[1].ID: 0}, ""))

	items, err := r.Deliver(storekeep)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 8, items[0].DeliverableQty())
	assert.Equal(t, StatusLivree, r.Status)
	assert.Equal(t, storekeep.ID, *r.DeliveredByID)

	_, err = r.Deliver(storekeep)
	assertInvalidTransition(t, err)
}

func TestRequest_Disputes(t *testing.T) {
	t.Run("report then approve resolution", func(t *testing.T) {
		r := deliveredRequest(t, 5, 3)
		err := r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[0].ID, Reason: DisputeReasonArticleEndommage}})
		require.NoError(t, err)
		assert.Equal(t, StatusLitige, r.Status)
		assert.Equal(t, DisputeStatusReported, r.Items[0].DisputeStatus)
		assert.Equal(t, DisputeStatusNone, r.Items[1].DisputeStatus)

		require.NoError(t, r.ResolveDispute(approver, DisputeDecisionApprove, "replaced"))
		assert.Equal(t, StatusReceptionConfirmee, r.Status)
		assert.Equal(t, DisputeStatusResolvedApproved, r.Items[0].DisputeStatus)
		assert.Equal(t, ApprovalDecisionLitigeResoluApprouve, r.Approvals[len(r.Approvals)-1].Decision)
	})

	t.Run("reject resolution closes as rejected", func(t *testing.T) {
		r := deliveredRequest(t, 5)
		require.NoError(t, r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[0].ID, Reason: DisputeReasonMauvaisArticle}}))
		require.NoError(t, r.ResolveDispute(approver, DisputeDecisionReject, ""))
		assert.Equal(t, StatusRejetee, r.Status)
		assert.Equal(t, DisputeStatusResolvedRejected, r.Items[0].DisputeStatus)
	})

	t.Run("new report while in dispute", func(t *testing.T) {
		r := deliveredRequest(t, 5, 2)
		require.NoError(t, r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[0].ID, Reason: DisputeReasonQuantiteIncorrecte}}))
		require.NoError(t, r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[1].ID, Reason: DisputeReasonQuantiteIncorrecte}}))
		assert.Len(t, r.ReportedItems(), 2)
	})

	t.Run("AUTRE needs a comment", func(t *testing.T) {
		r := deliveredRequest(t, 5)
		err := r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[0].ID, Reason: DisputeReasonAutre, Comment: "  "}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, StatusLivree, r.Status)
	})

	t.Run("unknown reason and foreign item", func(t *testing.T) {
		r := deliveredRequest(t, 5)
		err := r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[0].ID, Reason: "LATE"}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		err = r.ReportIssue(requester, []IssueReport{{ItemID: uuid.New(), Reason: DisputeReasonAutre, Comment: "x"}})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		err = r.ReportIssue(requester, nil)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("undelivered item cannot be disputed", func(t *testing.T) {
		r := newTestRequest(t, 5, 3)
		approved := map[uuid.UUID]int{r.Items[0].ID: 5, r.Items[1].ID: 0}
		require.NoError(t, r.Approve(approver, approved, ""))
		_, err := r.Deliver(storekeep)
		require.NoError(t, err)

		err = r.ReportIssue(requester, []IssueReport{{ItemID: r.Items[1].ID, Reason: DisputeReasonArticleEndommage}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.Equal(t, StatusLivree, r.Status)
		assert.Equal(t, DisputeStatusNone, r.Items[1].DisputeStatus)
	})

	t.Run("only the owner may report", func(t *testing.T) {
		r := deliveredRequest(t, 5)
		err := r.ReportIssue(otherChef, []IssueReport{{ItemID: r.Items[0].ID, Reason: DisputeReasonArticleEndommage}})
		assert.True(t, errors.Is(err, shared.ErrPermissionDenied))
	})
}

func TestRequest_Receive(t *testing.T) {
	r := deliveredRequest(t, 5)
	assertInvalidTransition(t, r.Receive(otherChef))
	require.NoError(t, r.Receive(requester))
	assert.Equal(t, StatusReceptionConfirmee, r.Status)
	assert.NotNil(t, r.ReceivedAt)
}

// Every (state, role, action) triple outside the legal set must fail with InvalidTransition.
func TestRequest_StateMachineCompleteness(t *testing.T) {
	type action struct {
		name    string
		target  Status
		allowed map[Status][]identity.Actor
		run     func(r *Request, a identity.Actor) error
	}
	actions := []action{
		{"approve", StatusApprouvee, map[Status][]identity.Actor{StatusTransmise: {approver}}, func(r *Request, a identity.Actor) error {
			d := map[uuid.UUID]int{}
			for _, item := range r.Items {
				d[item.ID] = 1
			}
			return r.Approve(a, d, "")
		}},
		{"reject", StatusRejetee, map[Status][]identity.Actor{StatusTransmise: {approver}}, func(r *Request, a identity.Actor) error {
			return r.Reject(a, "")
		}},
		{"deliver", StatusLivree, map[Status][]identity.Actor{StatusApprouvee: {storekeep}}, func(r *Request, a identity.Actor) error {
			_, err := r.Deliver(a)
			return err
		}},
		{"report", StatusLitige, map[Status][]identity.Actor{StatusLivree: {requester}, StatusLitige: {requester}}, func(r *Request, a identity.Actor) error {
			return r.ReportIssue(a, []IssueReport{{ItemID: r.Items[0].ID, Reason: DisputeReasonArticleEndommage}})
		}},
		{"resolve", StatusReceptionConfirmee, map[Status][]identity.Actor{StatusLitige: {approver}}, func(r *Request, a identity.Actor) error {
			return r.ResolveDispute(a, DisputeDecisionApprove, "")
		}},
		{"receive", StatusReceptionConfirmee, map[Status][]identity.Actor{StatusLivree: {requester}}, func(r *Request, a identity.Actor) error {
			return r.Receive(a)
		}},
		{"cancel", StatusAnnulee, map[Status][]identity.Actor{StatusTransmise: {requester}}, func(r *Request, a identity.Actor) error {
			return r.Cancel(a)
		}},
	}

	build := func(t *testing.T, status Status) *Request {
		r := newTestRequest(t, 2)
		r.Status = status
		one := 1
		r.Items[0].ApprovedQty = &one
		if status == StatusLitige {
			r.Items[0].DisputeStatus = DisputeStatusReported
			r.Items[0].DisputeReason = DisputeReasonArticleEndommage
		}
		return r
	}

	for _, act := range actions {
		for _, status := range AllStatuses {
			for _, actor := range everyActor {
				legal := false
				for _, a := range act.allowed[status] {
					if a.ID == actor.ID {
						legal = true
					}
				}
				t.Run(act.name+"/"+string(status)+"/"+actor.Name, func(t *testing.T) {
					err := act.run(build(t, status), actor)
					if legal {
						assert.NoError(t, err)
						return
					}
					assertInvalidTransition(t, err)
					assert.Contains(t, err.Error(), "from "+string(status)+" to "+string(act.target))
				})
			}
		}
	}
}

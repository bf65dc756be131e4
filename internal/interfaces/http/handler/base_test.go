package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/notification"
	"github.com/stockflow/backend/internal/domain/shared"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, intents notification.List) {
	m.Called(ctx, intents)
}

func newTestContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.NewNotFoundError("Product", uuid.New()), http.StatusNotFound, dto.ErrCodeNotFound},
		{"transition", shared.NewInvalidTransitionError("Request", stringer("TRANSMISE"), stringer("LIVREE")), http.StatusConflict, dto.ErrCodeInvalidTransition},
		{"permission", shared.NewPermissionError("nope"), http.StatusForbidden, dto.ErrCodeForbidden},
		{"stock", shared.NewInsufficientStockError("P1", 1, 5), http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"validation", shared.NewValidationError("INVALID_QUANTITY", "bad"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBaseHandler(nil)
			c, w := newTestContext(http.MethodGet, "/")
			c.Set(logger.GinRequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decodeResponse(t, w)
			assert.Equal(t, false, body["success"])
			errInfo := body["error"].(map[string]any)
			assert.Equal(t, tt.code, errInfo["code"])
			assert.Equal(t, "req-1", errInfo["request_id"])
		})
	}
}

func TestHandleError_NoOp(t *testing.T) {
	h := NewBaseHandler(nil)
	c, w := newTestContext(http.MethodPost, "/")

	h.HandleError(c, shared.NewNoOpError("No adjustment needed: P1 already has 4"))

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]any)
	assert.Equal(t, false, data["adjusted"])
	assert.Equal(t, "No adjustment needed: P1 already has 4", data["message"])
}

func TestCommit(t *testing.T) {
	intents := notification.List{notification.ToRoles(notification.TypeRequestApprovalNeeded, "new request", identity.RoleFinance)}

	t.Run("dispatches after success", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("Dispatch", mock.Anything, intents).Return().Once()
		h := NewBaseHandler(dispatcher)
		c, w := newTestContext(http.MethodPost, "/")

		h.commit(c, gin.H{"id": "x"}, intents, nil)

		assert.Equal(t, http.StatusOK, w.Code)
		dispatcher.AssertExpectations(t)
	})

	t.Run("nothing dispatched on error", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		h := NewBaseHandler(dispatcher)
		c, w := newTestContext(http.MethodPost, "/")

		h.commit(c, nil, intents, shared.NewPermissionError("nope"))

		assert.Equal(t, http.StatusForbidden, w.Code)
		dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("dispatch survives request cancellation", func(t *testing.T) {
		dispatcher := new(MockDispatcher)
		dispatcher.On("Dispatch", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), intents).Return().Once()
		h := NewBaseHandler(dispatcher)
		c, _ := newTestContext(http.MethodPost, "/")
		ctx, cancel := context.WithCancel(c.Request.Context())
		cancel()
		c.Request = c.Request.WithContext(ctx)

		h.commit(c, gin.H{}, intents, nil)
		dispatcher.AssertExpectations(t)
	})
}

func TestActorAndPathID(t *testing.T) {
	h := NewBaseHandler(nil)

	t.Run("missing actor", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		_, ok := h.actor(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		c, w := newTestContext(http.MethodGet, "/")
		c.Set(logger.GinActorKey, identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin"))
		c.Params = gin.Params{{Key: "id", Value: "42"}}

		_, _, ok := h.actorAndID(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("valid", func(t *testing.T) {
		id := uuid.New()
		c, _ := newTestContext(http.MethodGet, "/")
		c.Set(logger.GinActorKey, identity.NewActor(uuid.New(), identity.RoleAdmin, "Admin"))
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		actor, got, ok := h.actorAndID(c)
		require.True(t, ok)
		assert.Equal(t, id, got)
		assert.Equal(t, identity.RoleAdmin, actor.Role)
	})
}

type stringer string

func (s stringer) String() string { return string(s) }

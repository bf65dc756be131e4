package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	appnotif "github.com/stockflow/backend/internal/application/notification"
	apprequest "github.com/stockflow/backend/internal/application/request"
	apptrade "github.com/stockflow/backend/internal/application/trade"
	"github.com/stockflow/backend/internal/domain/identity"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"github.com/stockflow/backend/internal/infrastructure/config"
	infranotif "github.com/stockflow/backend/internal/infrastructure/notification"
	"github.com/stockflow/backend/internal/infrastructure/persistence"
	"github.com/stockflow/backend/internal/interfaces/http/handler"
	"github.com/stockflow/backend/internal/interfaces/http/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiServer struct {
	engine *gin.Engine
	tokens map[identity.Role]string
	actors map[identity.Role]identity.Actor
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, persistence.AutoMigrate(db))

	log := zaptest.NewLogger(t)
	scope := persistence.NewGormTransactionScope(db)
	ledger := appinv.NewStockLedger()
	numbers := sequence.NewGenerator()
	products := persistence.NewGormProductRepository(db)
	adjustments := persistence.NewGormAdjustmentRepository(db)
	users := persistence.NewGormUserRepository(db)
	inbox := persistence.NewGormInboxRepository(db)

	dispatcher := appnotif.NewDispatcher(users, log,
		infranotif.BuildSinks(config.NotificationConfig{InboxEnabled: true}, inbox, nil, log)...)
	base := handler.NewBaseHandler(dispatcher)

	handlers := router.Handlers{
		Products: handler.NewProductHandler(base,
			appinv.NewProductService(scope, products, persistence.NewGormLedgerRepository(db), ledger, log)),
		Stock: handler.NewStockHandler(base,
			appinv.NewAdjustmentService(scope, adjustments, ledger, log),
			appinv.NewReceiptService(scope, persistence.NewGormReceiptRepository(db), ledger, log)),
		Audits: handler.NewAuditHandler(base,
			appinv.NewAuditService(scope, persistence.NewGormAuditRepository(db), adjustments, products, numbers, log)),
		Requests: handler.NewRequestHandler(base,
			apprequest.NewService(scope, persistence.NewGormRequestRepository(db), products, users, numbers, ledger, log)),
		PurchaseOrders: handler.NewPurchaseOrderHandler(base,
			apptrade.NewPurchaseOrderService(scope, persistence.NewGormPurchaseOrderRepository(db), products, users, numbers, ledger, log)),
		Notifications: handler.NewNotificationHandler(base, appnotif.NewInboxService(inbox, log)),
		System:        handler.NewSystemHandler(base, &persistence.Database{DB: db}, nil, "test"),
	}

	jwtService := auth.NewJWTService(config.JWTConfig{Secret: "api-test-secret", Issuer: "stockflow"})
	engine, err := router.NewEngine(router.EngineConfig{Auth: jwtService, Logger: log}, handlers)
	require.NoError(t, err)

	s := &apiServer{
		engine: engine,
		tokens: make(map[identity.Role]string),
		actors: make(map[identity.Role]identity.Actor),
	}
	for _, role := range []identity.Role{identity.RoleAdmin, identity.RoleStorekeeper, identity.RoleRequester, identity.RoleFinance} {
		user, err := identity.NewUser(uuid.Nil, "User "+string(role), string(role)+"@example.com", role)
		require.NoError(t, err)
		require.NoError(t, users.Save(context.Background(), user))

		actor := identity.NewActor(user.ID, role, user.Name)
		token, _, err := jwtService.GenerateToken(actor)
		require.NoError(t, err)
		s.tokens[role] = token
		s.actors[role] = actor
	}
	return s
}

func (s *apiServer) do(t *testing.T, role identity.Role, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token, ok := s.tokens[role]; ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func (s *apiServer) createProduct(t *testing.T, reference string, quantity, minStock int) appinv.ProductResponse {
	t.Helper()
	status, env := s.do(t, identity.RoleAdmin, http.MethodPost, "/api/v1/products", map[string]any{
		"name":             "Product " + reference,
		"reference":        reference,
		"min_stock":        minStock,
		"unit_cost":        "2.50",
		"initial_quantity": quantity,
	})
	require.Equal(t, http.StatusCreated, status)
	return decode[appinv.ProductResponse](t, env)
}

func (s *apiServer) quantityOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	status, env := s.do(t, identity.RoleAdmin, http.MethodGet, "/api/v1/products/"+id.String(), nil)
	require.Equal(t, http.StatusOK, status)
	return decode[appinv.ProductResponse](t, env).Quantity
}

func TestAPI_HealthIsPublic(t *testing.T) {
	s := newAPIServer(t)

	for _, path := range []string{"/health", "/api/v1/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"database":"ok"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
}

func TestAPI_RequiresToken(t *testing.T) {
	s := newAPIServer(t)

	status, env := s.do(t, identity.Role("ANONYMOUS"), http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ERR_UNAUTHORIZED", env.Error.Code)
}

func TestAPI_DirectAdjustment(t *testing.T) {
	s := newAPIServer(t)
	product := s.createProduct(t, "P1", 10, 2)

	t.Run("same quantity is a documented no-op", func(t *testing.T) {
		status, env := s.do(t, identity.RoleAdmin, http.MethodPost, "/api/v1/adjustments/direct", map[string]any{
			"product_id": product.ID, "target_quantity": 10, "reason": "count",
		})
		assert.Equal(t, http.StatusOK, status)
		body := decode[map[string]any](t, env)
		assert.Equal(t, false, body["adjusted"])
		assert.Contains(t, body["message"], "No adjustment needed")
	})

	t.Run("new quantity is applied", func(t *testing.T) {
		status, env := s.do(t, identity.RoleAdmin, http.MethodPost, "/api/v1/adjustments/direct", map[string]any{
			"product_id": product.ID, "target_quantity": 7, "reason": "count",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, decode[map[string]any](t, env)["adjusted"])
		assert.Equal(t, 7, s.quantityOf(t, product.ID))
	})

	t.Run("non admin is forbidden", func(t *testing.T) {
		status, env := s.do(t, identity.RoleStorekeeper, http.MethodPost, "/api/v1/adjustments/direct", map[string]any{
			"product_id": product.ID, "target_quantity": 3, "reason": "count",
		})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "ERR_FORBIDDEN", env.Error.Code)
		assert.Equal(t, 7, s.quantityOf(t, product.ID))
	})

	t.Run("invalid body", func(t *testing.T) {
		status, env := s.do(t, identity.RoleAdmin, http.MethodPost, "/api/v1/adjustments/direct", map[string]any{
			"product_id": "not-a-uuid", "target_quantity": -1,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ERR_VALIDATION", env.Error.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		status, env := s.do(t, identity.RoleAdmin, http.MethodPost, "/api/v1/adjustments/direct", map[string]any{
			"product_id": uuid.New(), "target_quantity": 3, "reason": "count",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
	})

	status, env := s.do(t, identity.RoleAdmin, http.MethodGet, "/api/v1/ledger/verify", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[appinv.LedgerCheckResult](t, env).Mismatches)
}

func TestAPI_RequestLifecycle(t *testing.T) {
	s := newAPIServer(t)
	product := s.createProduct(t, "P2", 15, 2)

	status, env := s.do(t, identity.RoleRequester, http.MethodPost, "/api/v1/requests", map[string]any{
		"note":  "monthly supplies",
		"items": []map[string]any{{"product_id": product.ID, "requested_qty": 10}},
	})
	require.Equal(t, http.StatusCreated, status)
	created := decode[apprequest.Response](t, env)
	require.Len(t, created.Items, 1)

	t.Run("finance inbox receives the approval request", func(t *testing.T) {
		status, env := s.do(t, identity.RoleFinance, http.MethodGet, "/api/v1/notifications?unread_only=true", nil)
		require.Equal(t, http.StatusOK, status)
		inbox := decode[[]appnotif.DeliveryResponse](t, env)
		require.NotEmpty(t, inbox)
		assert.Equal(t, created.ID, inbox[0].EntityID)
	})

	t.Run("delivery before approval conflicts", func(t *testing.T) {
		status, env := s.do(t, identity.RoleStorekeeper, http.MethodPost,
			fmt.Sprintf("/api/v1/requests/%s/deliver", created.ID), nil)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "ERR_INVALID_TRANSITION", env.Error.Code)
	})

	status, _ = s.do(t, identity.RoleFinance, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/%s/approve", created.ID), map[string]any{
			"items": []map[string]any{{"item_id": created.Items[0].ID, "approved_qty": 8}},
		})
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, identity.RoleStorekeeper, http.MethodPost,
		fmt.Sprintf("/api/v1/requests/%s/deliver", created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "LIVREE_PAR_MAGASINIER", decode[apprequest.Response](t, env).Status)
	assert.Equal(t, 7, s.quantityOf(t, product.ID))

	status, env = s.do(t, identity.RoleRequester, http.MethodGet,
		fmt.Sprintf("/api/v1/requests/%s/delivery-note", created.ID), nil)
	require.Equal(t, http.StatusOK, status)
	note := decode[apprequest.DeliveryNote](t, env)
	require.Len(t, note.Lines, 1)
	assert.Equal(t, 8, note.Lines[0].DeliveredQty)
}

func TestAPI_PurchaseOrderAutoGenerate(t *testing.T) {
	s := newAPIServer(t)
	low := s.createProduct(t, "LOW", 1, 5)
	s.createProduct(t, "OK", 50, 5)

	status, env := s.do(t, identity.RoleStorekeeper, http.MethodPost, "/api/v1/purchase-orders/auto-generate", nil)
	require.Equal(t, http.StatusOK, status)
	result := decode[apptrade.AutoGenerateResult](t, env)
	require.Len(t, result.Created, 1)
	require.Len(t, result.Created[0].Items, 1)
	assert.Equal(t, low.ID, result.Created[0].Items[0].ProductID)

	status, env = s.do(t, identity.RoleStorekeeper, http.MethodGet,
		"/api/v1/purchase-orders/"+result.Created[0].ID.String()+"/print", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, result.Created[0].OrderNumber, decode[apptrade.PurchaseOrderPrint](t, env).OrderNumber)
}

func TestAPI_SystemJobsRequireAdmin(t *testing.T) {
	s := newAPIServer(t)

	status, _ := s.do(t, identity.RoleStorekeeper, http.MethodGet, "/api/v1/system/jobs", nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, env := s.do(t, identity.RoleAdmin, http.MethodGet, "/api/v1/system/jobs", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, "[]", string(env.Data))
}

package router

import (
	"github.com/stockflow/backend/internal/interfaces/http/handler"
)

// Handlers bundles the workflow handlers mounted under /api
type Handlers struct {
	Products       *handler.ProductHandler
	Stock          *handler.StockHandler
	Audits         *handler.AuditHandler
	Requests       *handler.RequestHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	Notifications  *handler.NotificationHandler
	System         *handler.SystemHandler
}

// DomainGroups returns one route group per workflow
func DomainGroups(h Handlers) []RouteRegistrar {
	products := NewDomainGroup("products", "/products").
		GET("", h.Products.List).
		POST("", h.Products.Create).
		GET("/below-min", h.Products.ListBelowMinStock).
		GET("/:id", h.Products.GetByID).
		PUT("/:id", h.Products.Update).
		GET("/:id/ledger", h.Products.Ledger)

	ledger := NewDomainGroup("ledger", "/ledger").
		GET("/verify", h.Products.VerifyLedger)

	adjustments := NewDomainGroup("adjustments", "/adjustments").
		GET("", h.Stock.ListAdjustments).
		POST("/direct", h.Stock.DirectAdjust).
		POST("", h.Stock.ProposeAdjustment).
		GET("/:id", h.Stock.GetAdjustment).
		POST("/:id/decision", h.Stock.DecideAdjustment)

	receipts := NewDomainGroup("receipts", "/receipts").
		GET("", h.Stock.ListReceipts).
		POST("", h.Stock.CreateReceipts).
		GET("/:id", h.Stock.GetReceipt).
		POST("/:id/decision", h.Stock.DecideReceipt)

	audits := NewDomainGroup("audits", "/audits").
		GET("", h.Audits.List).
		POST("", h.Audits.Create).
		GET("/:id", h.Audits.GetByID).
		PUT("/:id/counts", h.Audits.RecordCounts).
		POST("/:id/complete", h.Audits.Complete).
		POST("/:id/reconcile", h.Audits.Reconcile).
		GET("/:id/report", h.Audits.DiscrepancyReport)

	requests := NewDomainGroup("requests", "/requests").
		GET("", h.Requests.List).
		POST("", h.Requests.Create).
		GET("/:id", h.Requests.GetByID).
		POST("/:id/approve", h.Requests.Approve).
		POST("/:id/reject", h.Requests.Reject).
		POST("/:id/deliver", h.Requests.Deliver).
		POST("/:id/issues", h.Requests.ReportIssue).
		POST("/:id/dispute-resolution", h.Requests.ResolveDispute).
		POST("/:id/receive", h.Requests.Receive).
		POST("/:id/cancel", h.Requests.Cancel).
		GET("/:id/delivery-note", h.Requests.DeliveryNote)

	orders := NewDomainGroup("purchase-orders", "/purchase-orders").
		GET("", h.PurchaseOrders.List).
		POST("", h.PurchaseOrders.Create).
		POST("/auto-generate", h.PurchaseOrders.AutoGenerate).
		GET("/:id", h.PurchaseOrders.GetByID).
		PUT("/:id", h.PurchaseOrders.Edit).
		DELETE("/:id", h.PurchaseOrders.Delete).
		POST("/:id/submit", h.PurchaseOrders.Submit).
		POST("/:id/approve", h.PurchaseOrders.Approve).
		POST("/:id/send-back", h.PurchaseOrders.SendBack).
		POST("/:id/order", h.PurchaseOrders.MarkOrdered).
		POST("/:id/close", h.PurchaseOrders.Close).
		POST("/:id/cancel", h.PurchaseOrders.Cancel).
		GET("/:id/print", h.PurchaseOrders.Print)

	notifications := NewDomainGroup("notifications", "/notifications").
		GET("", h.Notifications.List).
		POST("/read-all", h.Notifications.MarkAllRead).
		POST("/:id/read", h.Notifications.MarkRead)

	health := NewDomainGroup("health", "/health").
		GET("", h.System.Health)

	system := NewDomainGroup("system", "/system").
		GET("/jobs", h.System.Jobs).
		POST("/jobs/:name/trigger", h.System.TriggerJob)

	return []RouteRegistrar{
		products, ledger, adjustments, receipts, audits,
		requests, orders, notifications, health, system,
	}
}

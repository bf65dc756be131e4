package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	appinv "github.com/stockflow/backend/internal/application/inventory"
	appnotif "github.com/stockflow/backend/internal/application/notification"
	apprequest "github.com/stockflow/backend/internal/application/request"
	apptrade "github.com/stockflow/backend/internal/application/trade"
	"github.com/stockflow/backend/internal/domain/sequence"
	"github.com/stockflow/backend/internal/infrastructure/auth"
	"github.com/stockflow/backend/internal/infrastructure/cache"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	infranotif "github.com/stockflow/backend/internal/infrastructure/notification"
	"github.com/stockflow/backend/internal/infrastructure/persistence"
	"github.com/stockflow/backend/internal/infrastructure/scheduler"
	"github.com/stockflow/backend/internal/infrastructure/telemetry"
	"github.com/stockflow/backend/internal/interfaces/http/handler"
	"github.com/stockflow/backend/internal/interfaces/http/middleware"
	"github.com/stockflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.FromAppConfig(cfg.Log, cfg.App.Name))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting stock engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFromApp(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFromApp(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfigFromApp(cfg.Telemetry), log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	log = logsProvider.Bridge(log)
	metrics, err := telemetry.NewWorkflowMetrics(meterProvider.Meter("stockflow"))
	if err != nil {
		log.Fatal("Failed to create workflow metrics", zap.Error(err))
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFromApp(cfg.Telemetry), log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected")

	var redisClient *redis.Client
	if cfg.Notification.RedisEnabled || cfg.Scheduler.ClusterClaims {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, publishing and cluster claims are off", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	// Repositories
	scope := persistence.NewGormTransactionScope(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdjustmentRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	inboxRepo := persistence.NewGormInboxRepository(db.DB)

	// Application services
	ledger := appinv.NewStockLedger().WithRecorder(metrics)
	numbers := sequence.NewGenerator()

	productService := appinv.NewProductService(scope, productRepo, persistence.NewGormLedgerRepository(db.DB), ledger, log)
	adjustmentService := appinv.NewAdjustmentService(scope, adjustmentRepo, ledger, log).
		WithTransitionRecorder(metrics)
	receiptService := appinv.NewReceiptService(scope, persistence.NewGormReceiptRepository(db.DB), ledger, log).
		WithTransitionRecorder(metrics)
	auditService := appinv.NewAuditService(scope, persistence.NewGormAuditRepository(db.DB), adjustmentRepo, productRepo, numbers, log).
		WithTransitionRecorder(metrics)
	requestService := apprequest.NewService(scope, persistence.NewGormRequestRepository(db.DB), productRepo, userRepo, numbers, ledger, log).
		WithTransitionRecorder(metrics)
	orderService := apptrade.NewPurchaseOrderService(scope, persistence.NewGormPurchaseOrderRepository(db.DB), productRepo, userRepo, numbers, ledger, log).
		WithTransitionRecorder(metrics)
	inboxService := appnotif.NewInboxService(inboxRepo, log)

	var publisher infranotif.Publisher
	if redisClient != nil && cfg.Notification.RedisEnabled {
		publisher = redisClient
	}
	dispatcher := appnotif.NewDispatcher(userRepo, log,
		infranotif.BuildSinks(cfg.Notification, inboxRepo, publisher, log)...,
	).WithFailureRecorder(metrics)

	// Background jobs
	jobs := scheduler.NewScheduler(scheduler.ConfigFromApp(cfg.Scheduler), log)
	if redisClient != nil && cfg.Scheduler.ClusterClaims {
		jobs.WithRunClaims(cache.NewRedisClaims(redisClient, ""))
	} else {
		localClaims := cache.NewInMemoryClaims()
		defer localClaims.Close()
		jobs.WithRunClaims(localClaims)
	}
	if cfg.Scheduler.Enabled {
		systemActor, err := scheduler.SystemActor(cfg.Scheduler)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		reorder := scheduler.NewReorderJob(orderService, dispatcher, systemActor, log).WithRecorder(metrics)
		if err := jobs.Register(cfg.Scheduler.ReorderSchedule, reorder); err != nil {
			log.Fatal("Failed to register reorder job", zap.Error(err))
		}
		ledgerCheck := scheduler.NewLedgerCheckJob(productService, log).WithRecorder(metrics)
		if err := jobs.Register(cfg.Scheduler.LedgerCheckSchedule, ledgerCheck); err != nil {
			log.Fatal("Failed to register ledger check job", zap.Error(err))
		}
	}
	jobs.Start()

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	base := handler.NewBaseHandler(dispatcher)
	handlers := router.Handlers{
		Products:       handler.NewProductHandler(base, productService),
		Stock:          handler.NewStockHandler(base, adjustmentService, receiptService),
		Audits:         handler.NewAuditHandler(base, auditService),
		Requests:       handler.NewRequestHandler(base, requestService),
		PurchaseOrders: handler.NewPurchaseOrderHandler(base, orderService),
		Notifications:  handler.NewNotificationHandler(base, inboxService),
		System:         handler.NewSystemHandler(base, db, jobs, version),
	}
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.App.Env == "production"

	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:     cfg.HTTP,
		Security: security,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Auth:   auth.NewJWTService(cfg.JWT),
		Logger: log,
	}, handlers)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not stop cleanly", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush metrics", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to flush logs", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

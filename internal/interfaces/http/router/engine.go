package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/stockflow/backend/internal/infrastructure/logger"
	"github.com/stockflow/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig carries what the middleware chain needs
type EngineConfig struct {
	HTTP     config.HTTPConfig
	Security middleware.SecurityConfig
	Tracing  middleware.TracingConfig
	Auth     middleware.ActorResolver
	Logger   *zap.Logger
}

// NewEngine builds the gin engine: global middleware, /health and the
// authenticated /api/v1 routes.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	middleware.SetupValidator()

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(cfg.Tracing), middleware.SpanEnricher())
	}
	engine.Use(
		middleware.SecureWithConfig(cfg.Security),
		middleware.CORSWithConfig(middleware.CORSConfigFromApp(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	if rl := middleware.RateLimitConfigFromApp(cfg.HTTP); rl.Enabled {
		engine.Use(middleware.RateLimit(middleware.NewLimiter(rl), log))
	}

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIMiddleware(
		middleware.JWTAuthMiddleware(middleware.DefaultJWTConfig(cfg.Auth, log)),
	))
	r.Register(DomainGroups(h)...)
	r.Setup()

	return engine, nil
}

package telemetry

import (
	"context"
	"time"

	"github.com/stockflow/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound values in spans (development only)
	SlowQueryThresh time.Duration // default: 200ms
	DBSystem        string        // default: "postgresql"
}

// DefaultDBTracingConfig returns the secure defaults for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingConfigFromApp maps the application telemetry section onto a DBTracingConfig
func DBTracingConfigFromApp(cfg config.TelemetryConfig) DBTracingConfig {
	out := DefaultDBTracingConfig()
	out.Enabled = cfg.Enabled && cfg.DBTraceEnabled
	out.LogFullSQL = cfg.DBLogFullSQL
	if cfg.DBSlowQueryThresh > 0 {
		out.SlowQueryThresh = cfg.DBSlowQueryThresh
	}
	return out
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// DBTracingPlugin registers otelgorm and marks slow statements on its spans.
type DBTracingPlugin struct {
	config   DBTracingConfig
	provider trace.TracerProvider
	logger   *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

// WithTracerProvider uses provider instead of the global tracer provider
func (p *DBTracingPlugin) WithTracerProvider(provider trace.TracerProvider) *DBTracingPlugin {
	p.provider = provider
	return p
}

// Register installs the otelgorm plugin and the slow query callbacks on db
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if p.provider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(p.provider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)
	return nil
}

// registerCallbacks hooks each statement kind. The after hook must run before
// otelgorm's own after hook, which ends the span.
func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("stockflow:before_create", p.before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Before("otel:after:create").Register("stockflow:after_create", p.after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("stockflow:before_query", p.before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Before("otel:after:select").Register("stockflow:after_query", p.after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("stockflow:before_update", p.before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Before("otel:after:update").Register("stockflow:after_update", p.after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("stockflow:before_delete", p.before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("stockflow:after_delete", p.after); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("stockflow:before_row", p.before); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Before("otel:after:row").Register("stockflow:after_row", p.after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("stockflow:before_raw", p.before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("stockflow:after_raw", p.after)
}

func (p *DBTracingPlugin) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(startTime)
	if elapsed <= p.config.SlowQueryThresh {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	span.AddEvent("slow_query_warning", trace.WithAttributes(
		attribute.Int64("duration_ms", elapsed.Milliseconds()),
		attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
	))
}

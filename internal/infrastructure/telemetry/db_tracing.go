package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // include bound query variables in spans
	SlowQueryThresh time.Duration // statements slower than this get a slow_query event
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:         false,
		LogFullSQL:      false,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin registers otelgorm plus slow query detection on a gorm.DB.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// RegisterOtelGorm installs the plugin. It is a no-op when disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
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

func (p *DBTracingPlugin) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("uv_timing:before_create", markQueryStart); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("uv_timing:before_query", markQueryStart); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("uv_timing:before_update", markQueryStart); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("uv_timing:before_delete", markQueryStart); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("uv_timing:before_row", markQueryStart); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("uv_timing:before_raw", markQueryStart); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Register("uv_timing:after_create", p.afterQuery); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("uv_timing:after_query", p.afterQuery); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("uv_timing:after_update", p.afterQuery); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("uv_timing:after_delete", p.afterQuery); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("uv_timing:after_row", p.afterQuery); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("uv_timing:after_raw", p.afterQuery)
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

// afterQuery annotates the statement span with table, row count, errors and slowness
func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}

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
	LogFullSQL      bool          // include query variables in spans
	SlowQueryThresh time.Duration // default: 200ms
	DBSystem        string
}

// DefaultDBTracingConfig returns default configuration for database tracing.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

// DBTracingPlugin wraps the otelgorm plugin with slow query detection.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a new database tracing plugin.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

type gormHook struct {
	op       string
	register func(name string, fn func(*gorm.DB)) error
}

func gormHooks(db *gorm.DB, before bool) []gormHook {
	pick := func(op string) string {
		return "gorm:" + op
	}
	if before {
		return []gormHook{
			{"create", func(n string, fn func(*gorm.DB)) error { return db.Callback().Create().Before(pick("create")).Register(n, fn) }},
			{"query", func(n string, fn func(*gorm.DB)) error { return db.Callback().Query().Before(pick("query")).Register(n, fn) }},
			{"update", func(n string, fn func(*gorm.DB)) error { return db.Callback().Update().Before(pick("update")).Register(n, fn) }},
			{"delete", func(n string, fn func(*gorm.DB)) error { return db.Callback().Delete().Before(pick("delete")).Register(n, fn) }},
			{"row", func(n string, fn func(*gorm.DB)) error { return db.Callback().Row().Before(pick("row")).Register(n, fn) }},
			{"raw", func(n string, fn func(*gorm.DB)) error { return db.Callback().Raw().Before(pick("raw")).Register(n, fn) }},
		}
	}
	return []gormHook{
		{"create", func(n string, fn func(*gorm.DB)) error { return db.Callback().Create().After(pick("create")).Register(n, fn) }},
		{"query", func(n string, fn func(*gorm.DB)) error { return db.Callback().Query().After(pick("query")).Register(n, fn) }},
		{"update", func(n string, fn func(*gorm.DB)) error { return db.Callback().Update().After(pick("update")).Register(n, fn) }},
		{"delete", func(n string, fn func(*gorm.DB)) error { return db.Callback().Delete().After(pick("delete")).Register(n, fn) }},
		{"row", func(n string, fn func(*gorm.DB)) error { return db.Callback().Row().After(pick("row")).Register(n, fn) }},
		{"raw", func(n string, fn func(*gorm.DB)) error { return db.Callback().Raw().After(pick("raw")).Register(n, fn) }},
	}
}

// RegisterOtelGorm registers otelgorm and the slow query callbacks on db.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
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
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	for _, h := range gormHooks(db, true) {
		if err := h.register("otel_timing:before_"+h.op, markQueryStart); err != nil {
			return err
		}
	}
	for _, h := range gormHooks(db, false) {
		if err := h.register("otel_slow_query:"+h.op, p.afterQuery); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// afterQuery annotates the active span with row counts, errors and slow query markers.
func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	startTime, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(startTime); elapsed > p.config.SlowQueryThresh {
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

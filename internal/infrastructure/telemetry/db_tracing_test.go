package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func setupTracedDB(t *testing.T, cfg telemetry.DBTracingConfig) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	require.NoError(t, telemetry.NewDBTracingPlugin(cfg, zap.NewNop()).RegisterOtelGorm(db))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := telemetry.DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	sr := setupTestTracer(t)
	db := setupTracedDB(t, telemetry.DefaultDBTracingConfig())

	ctx, span := telemetry.StartSpan(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	span.End()

	assert.Len(t, sr.Ended(), 1)
}

func TestDBTracingPlugin_Enabled(t *testing.T) {
	sr := setupTestTracer(t)
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	cfg.SlowQueryThresh = time.Nanosecond
	db := setupTracedDB(t, cfg)

	ctx, span := telemetry.StartSpan(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&tracedRow{Name: "a"}).Error)
	var rows []tracedRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	span.End()

	assert.Len(t, rows, 1)
	spans := sr.Ended()
	assert.Greater(t, len(spans), 1)
	for _, s := range spans {
		if s.Name() != "parent" {
			assert.Equal(t, span.SpanContext().TraceID(), s.SpanContext().TraceID())
		}
	}
}

func TestDBTracingPlugin_DoubleRegistration(t *testing.T) {
	cfg := telemetry.DefaultDBTracingConfig()
	cfg.Enabled = true
	db := setupTracedDB(t, cfg)

	assert.Error(t, telemetry.NewDBTracingPlugin(cfg, zap.NewNop()).RegisterOtelGorm(db))
}

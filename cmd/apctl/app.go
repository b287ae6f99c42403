package main

import (
	"context"
	"errors"
	"fmt"

	payablesapp "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/payment"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// application holds the wired services of one CLI invocation
type application struct {
	cfg *config.Config
	log *zap.Logger
	db  *persistence.Database

	otel *telemetry.Providers
	lock shared.DistributedLock
	bus  *event.InMemoryEventBus

	documents   *payablesapp.DocumentService
	payments    *payablesapp.VendorPaymentService
	adjustments *payablesapp.VendorAdjustmentService
	batches     *payablesapp.BatchProcessor
	methods     *payment.Registry
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = true
		tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		tracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		if cfg.Database.Driver == "sqlite" {
			tracing.DBSystem = "sqlite"
		}
		if err := telemetry.NewDBTracingPlugin(tracing, log).RegisterOtelGorm(db.DB); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

func chartOfAccounts(cfg config.LedgerConfig) (ledger.ChartOfAccounts, error) {
	chart := ledger.ChartOfAccounts{
		AccountsPayable:    cfg.AccountsPayable,
		AccountsReceivable: cfg.AccountsReceivable,
		Expense:            cfg.Expense,
		Revenue:            cfg.Revenue,
		Bank:               cfg.Bank,
		VendorPrepayments:  cfg.VendorPrepayments,
		FeeExpense:         cfg.FeeExpense,
		Adjustments:        cfg.Adjustments,
	}
	for _, code := range cfg.Currencies {
		currency, err := valueobject.ParseCurrency(code)
		if err != nil {
			return ledger.ChartOfAccounts{}, fmt.Errorf("ledger.currencies: %w", err)
		}
		chart.Currencies = append(chart.Currencies, currency)
	}
	return chart, nil
}

func paymentMethods(cfg config.PaymentConfig) (*payment.Registry, error) {
	registry := payment.NewRegistry(payment.NewCheckMethod(), payment.NewManualMethod())
	if cfg.RemittanceURL == "" {
		return registry, nil
	}

	ach, err := payment.NewRemittanceMethod(payment.RemittanceConfig{
		BaseURL: cfg.RemittanceURL,
		APIKey:  cfg.RemittanceAPIKey,
		Timeout: cfg.RemittanceTimeout,
	})
	if err != nil {
		return nil, err
	}
	registry.Register(ach)
	return registry, nil
}

// newApplication wires configuration, storage, telemetry and the payables services
func newApplication(ctx context.Context) (app *application, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	app = &application{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			app.close(context.WithoutCancel(ctx))
			app = nil
		}
	}()

	app.otel, err = telemetry.Setup(ctx, telemetry.Config{
		ServiceName:     cfg.Telemetry.ServiceName,
		Endpoint:        cfg.Telemetry.CollectorEndpoint,
		Insecure:        cfg.Telemetry.Insecure,
		Tracing:         cfg.Telemetry.Enabled,
		SamplingRatio:   cfg.Telemetry.SamplingRatio,
		Metrics:         cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		MetricsInterval: cfg.Telemetry.MetricsInterval,
	}, log)
	if err != nil {
		return app, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	metrics, err := telemetry.NewPayablesMetrics(app.otel.Meter("ledger/payables"))
	if err != nil {
		return app, err
	}

	app.db, err = openDatabase(cfg, log)
	if err != nil {
		return app, err
	}

	chart, err := chartOfAccounts(cfg.Ledger)
	if err != nil {
		return app, err
	}

	app.methods, err = paymentMethods(cfg.Payment)
	if err != nil {
		return app, err
	}

	if cfg.Batch.LockEnabled {
		app.lock, err = cache.NewLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock()
		if err != nil {
			return app, err
		}
	}

	app.bus = event.NewInMemoryEventBus(log)
	app.bus.Subscribe(event.NewAuditLogHandler(
		persistence.NewGormAuditLogRepository(app.db.DB),
		event.NewPayablesSerializer(),
		log,
	))
	if err := app.bus.Start(ctx); err != nil {
		return app, err
	}

	deps := payablesapp.Deps{
		Tx:        persistence.NewGormTransactionManager(app.db.DB),
		Chart:     chart,
		Publisher: app.bus,
		Logger:    log,
		Metrics:   metrics,
	}
	app.documents = payablesapp.NewDocumentService(deps)
	app.payments = payablesapp.NewVendorPaymentService(deps)
	app.adjustments = payablesapp.NewVendorAdjustmentService(deps)
	app.batches = payablesapp.NewBatchProcessor(deps, app.payments, app.methods, app.lock, payablesapp.BatchConfig{
		Concurrency: cfg.Batch.Concurrency,
		LockTTL:     cfg.Batch.LockTTL,
	})

	log.Debug("Application wired",
		zap.String("env", cfg.App.Env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("payment_methods", app.methods.Names()),
		zap.Bool("batch_lock", app.lock != nil),
	)
	return app, nil
}

// close shuts everything down in reverse wiring order
func (a *application) close(ctx context.Context) {
	var errs []error
	if a.bus != nil {
		errs = append(errs, a.bus.Stop(ctx))
	}
	if a.lock != nil {
		errs = append(errs, a.lock.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if a.otel != nil {
		errs = append(errs, a.otel.Shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("Shutdown finished with errors", zap.Error(err))
	}
	_ = a.log.Sync()
}

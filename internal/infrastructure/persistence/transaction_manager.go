package persistence

import (
	"context"

	apppayables "github.com/erp/ledger/internal/application/payables"
	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/payables"
	"gorm.io/gorm"
)

// GormTransactionManager implements TransactionManager using GORM transactions.
// Every repository handed to fn shares the same database transaction.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager.
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Perform runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (m *GormTransactionManager) Perform(ctx context.Context, fn func(repos apppayables.Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{tx: tx})
	})
}

// gormRepositories provides access to all repositories within a transaction.
type gormRepositories struct {
	tx *gorm.DB
}

func (r *gormRepositories) Documents() payables.DocumentRepository {
	return NewGormDocumentRepository(r.tx)
}

func (r *gormRepositories) Payments() payables.VendorPaymentRepository {
	return NewGormVendorPaymentRepository(r.tx)
}

func (r *gormRepositories) Adjustments() payables.VendorAdjustmentRepository {
	return NewGormVendorAdjustmentRepository(r.tx)
}

func (r *gormRepositories) Batches() payables.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

func (r *gormRepositories) Vendors() payables.VendorRepository {
	return NewGormCounterpartyRepository(r.tx)
}

func (r *gormRepositories) Network() payables.NetworkDocumentRepository {
	return NewGormNetworkDocumentRepository(r.tx)
}

func (r *gormRepositories) Entries() ledger.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

func (r *gormRepositories) Workflows() approval.WorkflowRepository {
	return NewGormWorkflowRepository(r.tx)
}

func (r *gormRepositories) Tasks() approval.TaskRepository {
	return NewGormTaskRepository(r.tx)
}

func (r *gormRepositories) Roles() approval.RoleDirectory {
	return NewGormRoleDirectory(r.tx)
}

func (r *gormRepositories) Counterparties() approval.CounterpartyDirectory {
	return NewGormCounterpartyRepository(r.tx)
}

// Ensure GormTransactionManager implements TransactionManager
var _ apppayables.TransactionManager = (*GormTransactionManager)(nil)

// Ensure gormRepositories implements Repositories
var _ apppayables.Repositories = (*gormRepositories)(nil)

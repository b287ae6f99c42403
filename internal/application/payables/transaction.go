package payables

import (
	"context"

	"github.com/erp/ledger/internal/domain/approval"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/payables"
)

// TransactionManager runs a unit of work atomically.
// If fn returns an error, every write made through repos is rolled back.
type TransactionManager interface {
	Perform(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type Repositories interface {
	Documents() payables.DocumentRepository
	Payments() payables.VendorPaymentRepository
	Adjustments() payables.VendorAdjustmentRepository
	Batches() payables.BatchRepository
	Vendors() payables.VendorRepository
	Network() payables.NetworkDocumentRepository
	Entries() ledger.EntryRepository
	Workflows() approval.WorkflowRepository
	Tasks() approval.TaskRepository
	Roles() approval.RoleDirectory
	Counterparties() approval.CounterpartyDirectory
}

// synchronizer builds a ledger synchronizer bound to the transaction's repositories
func synchronizer(chart ledger.ChartOfAccounts, repos Repositories) *ledger.Synchronizer {
	return ledger.NewSynchronizer(chart, repos.Entries(), repos.Documents(), repos.Network())
}

// resolver builds an approval resolver bound to the transaction's repositories
func resolver(repos Repositories) *approval.Resolver {
	return approval.NewResolver(repos.Workflows(), repos.Tasks(), repos.Roles(), repos.Counterparties())
}

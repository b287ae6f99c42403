package payables

import (
	"context"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentFilter defines filtering options for document queries
type DocumentFilter struct {
	shared.Filter
	Kind           *DocumentKind   // Filter by kind
	Status         *DocumentStatus // Filter by status
	CounterpartyID *uuid.UUID      // Filter by vendor or customer
	IncludeVoided  bool            // Include voided documents
}

// DocumentRepository defines the interface for document persistence
type DocumentRepository interface {
	// FindByIDForTenant finds a document with its line items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Document, error)

	// FindByIDsForTenant finds documents by ids; missing ids are omitted from the result
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Document, error)

	// FindAllForTenant finds documents for a tenant with filtering
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter DocumentFilter) ([]Document, error)

	// Create inserts a new document together with its line items
	Create(ctx context.Context, doc *Document) error

	// SaveWithLock updates the document header with optimistic locking (version check)
	SaveWithLock(ctx context.Context, doc *Document) error

	// SaveLineItems inserts or updates line items
	SaveLineItems(ctx context.Context, items []LineItem) error

	// DeleteMissingLineItems deletes the document's lines whose id is not in keepIDs
	DeleteMissingLineItems(ctx context.Context, tenantID, documentID uuid.UUID, keepIDs []uuid.UUID) error
}

// VendorPaymentRepository defines the interface for vendor payment persistence
type VendorPaymentRepository interface {
	// FindByIDForTenant finds a payment with its items
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*VendorPayment, error)

	// FindByBatch finds payments produced by a batch
	FindByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*VendorPayment, error)

	// Create inserts a new payment together with its items
	Create(ctx context.Context, payment *VendorPayment) error

	// SaveWithLock updates the payment header with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *VendorPayment) error

	// SaveItems inserts or updates payment items
	SaveItems(ctx context.Context, items []PaymentItem) error

	// DeleteMissingItems deletes the payment's items whose id is not in keepIDs
	DeleteMissingItems(ctx context.Context, tenantID, paymentID uuid.UUID, keepIDs []uuid.UUID) error
}

// VendorAdjustmentRepository defines the interface for vendor adjustment persistence
type VendorAdjustmentRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*VendorAdjustment, error)
	Create(ctx context.Context, adjustment *VendorAdjustment) error
	SaveWithLock(ctx context.Context, adjustment *VendorAdjustment) error
}

// BatchRepository defines the interface for vendor payment batch persistence
type BatchRepository interface {
	// FindByIDForTenant finds a batch with its rows
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*VendorPaymentBatch, error)

	// Create inserts a new batch together with its rows
	Create(ctx context.Context, batch *VendorPaymentBatch) error

	// SaveWithLock updates the batch header with optimistic locking (version check)
	SaveWithLock(ctx context.Context, batch *VendorPaymentBatch) error

	// SaveBills updates batch rows
	SaveBills(ctx context.Context, bills []*BatchBill) error
}

// VendorRepository reads vendors
type VendorRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Vendor, error)
}

// NetworkDocumentRepository defines the interface for supplier network documents
type NetworkDocumentRepository interface {
	// FindByDocument returns the network document linked to a bill, or nil if there is none
	FindByDocument(ctx context.Context, tenantID, documentID uuid.UUID) (*NetworkDocument, error)

	// Save updates a network document
	Save(ctx context.Context, doc *NetworkDocument) error
}

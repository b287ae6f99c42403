package payables

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared"
)

// LedgerSyncFunc posts a document through the given synchronizer
type LedgerSyncFunc func(ctx context.Context, sync *ledger.Synchronizer, doc *payables.Document) (ledger.SyncResult, error)

// PayableDocument describes how the generic document operations treat one document kind
type PayableDocument interface {
	Kind() payables.DocumentKind
	LineItemClass() string
	IDFieldName() string
	LedgerSync() LedgerSyncFunc
}

type documentCapability struct {
	kind          payables.DocumentKind
	lineItemClass string
	idFieldName   string
	sync          LedgerSyncFunc
}

func (c documentCapability) Kind() payables.DocumentKind { return c.kind }
func (c documentCapability) LineItemClass() string { return c.lineItemClass }
func (c documentCapability) IDFieldName() string { return c.idFieldName }
func (c documentCapability) LedgerSync() LedgerSyncFunc { return c.sync }

func syncDocument(ctx context.Context, sync *ledger.Synchronizer, doc *payables.Document) (ledger.SyncResult, error) {
	return sync.SyncDocument(ctx, doc)
}

// estimates never reach the ledger
func skipLedger(context.Context, *ledger.Synchronizer, *payables.Document) (ledger.SyncResult, error) {
	return ledger.SyncResult{}, nil
}

var documentCapabilities = map[payables.DocumentKind]PayableDocument{
	payables.DocumentKindBill:         documentCapability{payables.DocumentKindBill, "BillLineItem", "bill_id", syncDocument},
	payables.DocumentKindVendorCredit: documentCapability{payables.DocumentKindVendorCredit, "VendorCreditLineItem", "vendor_credit_id", syncDocument},
	payables.DocumentKindInvoice:      documentCapability{payables.DocumentKindInvoice, "InvoiceLineItem", "invoice_id", syncDocument},
	payables.DocumentKindCreditNote:   documentCapability{payables.DocumentKindCreditNote, "CreditNoteLineItem", "credit_note_id", syncDocument},
	payables.DocumentKindEstimate:     documentCapability{payables.DocumentKindEstimate, "EstimateLineItem", "estimate_id", skipLedger},
}

// CapabilityFor returns the capability registered for kind
func CapabilityFor(kind payables.DocumentKind) (PayableDocument, error) {
	c, ok := documentCapabilities[kind]
	if !ok {
		return nil, shared.NewDomainError("INVALID_KIND", fmt.Sprintf("Unknown document kind %q", kind))
	}
	return c, nil
}

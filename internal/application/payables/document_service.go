package payables

import (
	"context"
	"fmt"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DocumentService creates, edits and voids bills, vendor credits and receivable documents
type DocumentService struct {
	deps       Deps
	calculator *payables.LineItemCalculator
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(deps Deps) *DocumentService {
	return &DocumentService{
		deps:       deps.withDefaults(),
		calculator: payables.NewLineItemCalculator(),
	}
}

// CreateBill creates a bill
func (s *DocumentService) CreateBill(ctx context.Context, params CreateDocumentParams) (*payables.Document, error) {
	return s.CreateDocument(ctx, payables.DocumentKindBill, params)
}

// CreateDocument creates a document of the given kind with its line items,
// resolves its approval workflow and posts it to the ledger.
func (s *DocumentService) CreateDocument(ctx context.Context, kind payables.DocumentKind, params CreateDocumentParams) (*payables.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, params.TenantID.String(),
		telemetry.SpanAttrDocumentKind, string(kind),
	)

	capability, err := CapabilityFor(kind)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := validateParams(params); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	currency, err := parseCurrency(params.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = payables.DocumentStatusDraft
	}
	doc, err := payables.NewDocument(params.TenantID, kind, params.Number, params.CounterpartyID, currency, params.IssueDate, status)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := doc.UpdateDetails("", params.IssueDate, params.DueDate, params.Memo); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	inputs, err := lineItemInputs(currency, params.LineItems)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	result, err := s.calculator.Calculate(doc, nil, inputs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := doc.ReplaceLineItems(result.Items, result.Total); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	audit := s.deps.newAudit()
	err = s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		if err := resolver(repos).Assign(ctx, doc, params.Approval); err != nil {
			return err
		}
		if err := repos.Documents().Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create %s: %w", kind, err)
		}
		synced, err := capability.LedgerSync()(ctx, synchronizer(s.deps.Chart, repos), doc)
		if err != nil {
			return err
		}
		s.deps.recordSync(ctx, string(kind), synced)
		audit.Collect(doc)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapLedgerError(err)
	}
	audit.Flush(ctx)

	telemetry.SetAttribute(span, telemetry.SpanAttrDocumentID, doc.ID.String())
	s.deps.Logger.Info("Document created",
		zap.String(capability.IDFieldName(), doc.ID.String()),
		zap.String("number", doc.Number),
		zap.String("status", string(doc.Status)),
		zap.Int("line_items", len(doc.LineItems)),
	)
	return doc, nil
}

// EditDocument applies an edit. Submitted line items replace the persisted
// set, lines that were not submitted are deleted, and the ledger is resynced.
func (s *DocumentService) EditDocument(ctx context.Context, tenantID, documentID uuid.UUID, params EditDocumentParams) (*payables.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "edit")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrDocumentID, documentID.String(),
	)

	if err := validateParams(params); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var doc *payables.Document
	audit := s.deps.newAudit()
	err := s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		var err error
		doc, err = repos.Documents().FindByIDForTenant(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		capability, err := CapabilityFor(doc.Kind)
		if err != nil {
			return err
		}
		telemetry.SetAttributes(span,
			telemetry.SpanAttrDocumentKind, string(doc.Kind),
			"line_item_class", capability.LineItemClass(),
		)
		if err := doc.EnsureMutable(); err != nil {
			return err
		}

		if err := s.applyDetails(doc, params); err != nil {
			return err
		}
		currencyChanged := false
		if params.Currency != nil {
			currency, err := parseCurrency(*params.Currency)
			if err != nil {
				return err
			}
			currencyChanged = currency != doc.Currency
			if err := doc.ChangeCurrency(currency); err != nil {
				return err
			}
		}

		var inputs []payables.LineItemInput
		switch {
		case params.LineItems != nil:
			inputs, err = lineItemInputs(doc.Currency, *params.LineItems)
		case currencyChanged:
			inputs, err = restateLines(doc)
		}
		if err != nil {
			return err
		}
		if params.LineItems != nil || currencyChanged {
			if err := s.replaceLines(ctx, repos, doc, inputs); err != nil {
				return err
			}
		}

		if params.Status != nil {
			if err := doc.TransitionTo(*params.Status); err != nil {
				return err
			}
		}
		if _, err := resolver(repos).Reassign(ctx, doc, params.Approval); err != nil {
			return err
		}

		doc.AddDomainEvent(payables.NewDocumentUpdatedEvent(doc))
		if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
			return fmt.Errorf("failed to save %s: %w", doc.Kind, err)
		}
		synced, err := capability.LedgerSync()(ctx, synchronizer(s.deps.Chart, repos), doc)
		if err != nil {
			return err
		}
		s.deps.recordSync(ctx, string(doc.Kind), synced)
		audit.Collect(doc)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapLedgerError(err)
	}
	audit.Flush(ctx)
	return doc, nil
}

func (s *DocumentService) applyDetails(doc *payables.Document, params EditDocumentParams) error {
	if params.Number == nil && params.IssueDate == nil && params.DueDate == nil && params.Memo == nil {
		return nil
	}
	number, issueDate, dueDate, memo := doc.Number, doc.IssueDate, doc.DueDate, doc.Memo
	if params.Number != nil {
		number = *params.Number
	}
	if params.IssueDate != nil {
		issueDate = *params.IssueDate
	}
	if params.DueDate != nil {
		dueDate = params.DueDate
	}
	if params.Memo != nil {
		memo = *params.Memo
	}
	return doc.UpdateDetails(number, issueDate, dueDate, memo)
}

func (s *DocumentService) replaceLines(ctx context.Context, repos Repositories, doc *payables.Document, inputs []payables.LineItemInput) error {
	result, err := s.calculator.Calculate(doc, doc.LineItems, inputs)
	if err != nil {
		return err
	}
	if err := doc.ReplaceLineItems(result.Items, result.Total); err != nil {
		return err
	}
	if err := repos.Documents().SaveLineItems(ctx, result.Items); err != nil {
		return fmt.Errorf("failed to save line items: %w", err)
	}
	if err := repos.Documents().DeleteMissingLineItems(ctx, doc.TenantID, doc.ID, result.KeepIDs()); err != nil {
		return fmt.Errorf("failed to delete removed line items: %w", err)
	}
	return nil
}

// restateLines carries the persisted lines over into the document's new currency
func restateLines(doc *payables.Document) ([]payables.LineItemInput, error) {
	inputs := make([]payables.LineItemInput, len(doc.LineItems))
	for i, item := range doc.LineItems {
		amount, err := restateAmount(item.Amount, doc.Currency)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		id := item.ID
		inputs[i] = payables.LineItemInput{
			ID:          &id,
			Description: item.Description,
			Amount:      amount,
		}
	}
	return inputs, nil
}

// VoidDocument voids a document and reverses its ledger entries
func (s *DocumentService) VoidDocument(ctx context.Context, tenantID, documentID uuid.UUID) (*payables.Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "document", "void")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrDocumentID, documentID.String(),
	)

	var doc *payables.Document
	audit := s.deps.newAudit()
	err := s.deps.Tx.Perform(ctx, func(repos Repositories) error {
		var err error
		doc, err = repos.Documents().FindByIDForTenant(ctx, tenantID, documentID)
		if err != nil {
			return err
		}
		capability, err := CapabilityFor(doc.Kind)
		if err != nil {
			return err
		}
		if err := doc.Void(s.deps.Now()); err != nil {
			return err
		}
		if err := repos.Documents().SaveWithLock(ctx, doc); err != nil {
			return fmt.Errorf("failed to save %s: %w", doc.Kind, err)
		}
		synced, err := capability.LedgerSync()(ctx, synchronizer(s.deps.Chart, repos), doc)
		if err != nil {
			return err
		}
		s.deps.recordSync(ctx, string(doc.Kind), synced)
		audit.Collect(doc)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, WrapLedgerError(err)
	}
	audit.Flush(ctx)

	s.deps.Logger.Info("Document voided",
		zap.String("document_id", doc.ID.String()),
		zap.String("kind", string(doc.Kind)),
	)
	return doc, nil
}

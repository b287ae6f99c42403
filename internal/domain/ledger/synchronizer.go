package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/ledger/internal/domain/payables"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// DocumentKindVendorAdjustment tags entries posted by vendor adjustments
const DocumentKindVendorAdjustment = "VENDOR_ADJUSTMENT"

// DocumentKindVendorPayment tags entries posted by vendor payments
const DocumentKindVendorPayment = "VENDOR_PAYMENT"

// SyncResult summarizes the writes of one synchronization
type SyncResult struct {
	Posted       int
	Superseded   int
	Recalculated []uuid.UUID
}

// Synchronizer translates documents, payments and adjustments into ledger entries.
//
// Every sync computes the full set of postings the source should have and diffs
// it against the entries already posted for that source: missing postings are
// inserted and stale ones superseded, so repeating a sync without changes
// writes nothing. It must run inside the transaction that saved the source.
type Synchronizer struct {
	chart     ChartOfAccounts
	entries   EntryRepository
	documents payables.DocumentRepository
	network   payables.NetworkDocumentRepository
	now       func() time.Time
}

// NewSynchronizer creates a new Synchronizer. network may be nil.
func NewSynchronizer(
	chart ChartOfAccounts,
	entries EntryRepository,
	documents payables.DocumentRepository,
	network payables.NetworkDocumentRepository,
) *Synchronizer {
	return &Synchronizer{
		chart:     chart,
		entries:   entries,
		documents: documents,
		network:   network,
		now:       time.Now,
	}
}

// SyncDocument posts a bill, vendor credit, invoice or credit note.
// Drafts, estimates and voided documents post nothing.
func (s *Synchronizer) SyncDocument(ctx context.Context, doc *payables.Document) (SyncResult, error) {
	postings, err := s.documentPostings(doc)
	if err != nil {
		return SyncResult{}, err
	}

	result, _, err := s.apply(ctx, doc.TenantID, doc.ID, string(doc.Kind), doc.CounterpartyID, doc.Currency, postings)
	if err != nil {
		return SyncResult{}, err
	}

	if doc.Kind == payables.DocumentKindEstimate {
		return result, nil
	}
	changed, err := s.settle(ctx, doc)
	if err != nil {
		return SyncResult{}, err
	}
	if changed {
		result.Recalculated = append(result.Recalculated, doc.ID)
	}
	return result, nil
}

// SyncPayment posts a vendor payment and recalculates every bill and vendor
// credit it targets now or targeted before.
func (s *Synchronizer) SyncPayment(ctx context.Context, payment *payables.VendorPayment) (SyncResult, error) {
	var postings []Posting
	if !payment.Voided {
		var err error
		postings, err = s.paymentPostings(ctx, payment)
		if err != nil {
			return SyncResult{}, err
		}
	}

	result, targets, err := s.apply(ctx, payment.TenantID, payment.ID, DocumentKindVendorPayment, payment.VendorID, payment.Currency, postings)
	if err != nil {
		return SyncResult{}, err
	}

	recalculated, err := s.recalculate(ctx, payment.TenantID, targets)
	if err != nil {
		return SyncResult{}, err
	}
	result.Recalculated = recalculated
	return result, nil
}

// CheckPayment validates the postings a payment would produce without writing
// anything, so callers can refuse it before money moves.
func (s *Synchronizer) CheckPayment(ctx context.Context, payment *payables.VendorPayment) error {
	postings, err := s.paymentPostings(ctx, payment)
	if err != nil {
		return err
	}
	if len(postings) == 0 {
		return nil
	}
	return checkBalanced(payment.Currency, postings)
}

// SyncAdjustment posts a vendor adjustment: a positive amount credits accounts
// payable against the adjustment account, a negative amount reverses the sides.
func (s *Synchronizer) SyncAdjustment(ctx context.Context, adjustment *payables.VendorAdjustment) (SyncResult, error) {
	var postings []Posting
	if !adjustment.Voided {
		if !s.chart.Supports(adjustment.Currency) {
			return SyncResult{}, newLedgerError("unsupported currency %q on vendor adjustment %s", adjustment.Currency, adjustment.ID)
		}
		account := adjustment.AccountCode
		if account == "" {
			account = s.chart.Adjustments
		}
		amount := adjustment.AmountMoney()
		payableSide, adjustmentSide := SideCredit, SideDebit
		if amount.IsNegative() {
			payableSide, adjustmentSide = SideDebit, SideCredit
		}
		postings = []Posting{
			{Account: s.chart.AccountsPayable, Side: payableSide, Amount: amount.Abs()},
			{Account: account, Side: adjustmentSide, Amount: amount.Abs()},
		}
	}

	result, _, err := s.apply(ctx, adjustment.TenantID, adjustment.ID, DocumentKindVendorAdjustment, adjustment.VendorID, adjustment.Currency, postings)
	if err != nil {
		return SyncResult{}, err
	}
	return result, nil
}

func (s *Synchronizer) documentPostings(doc *payables.Document) ([]Posting, error) {
	if doc.Voided || !doc.Status.IsPosted() || doc.Kind == payables.DocumentKindEstimate {
		return nil, nil
	}
	if !s.chart.Supports(doc.Currency) {
		return nil, newLedgerError("unsupported currency %q on %s %s", doc.Currency, doc.Kind, doc.Number)
	}

	var (
		control     string // account carrying the open balance
		controlSide Side
		lineAccount string
	)
	switch doc.Kind {
	case payables.DocumentKindBill:
		control, controlSide, lineAccount = s.chart.AccountsPayable, SideCredit, s.chart.Expense
	case payables.DocumentKindVendorCredit:
		control, controlSide, lineAccount = s.chart.AccountsPayable, SideDebit, s.chart.Expense
	case payables.DocumentKindInvoice:
		control, controlSide, lineAccount = s.chart.AccountsReceivable, SideDebit, s.chart.Revenue
	case payables.DocumentKindCreditNote:
		control, controlSide, lineAccount = s.chart.AccountsReceivable, SideCredit, s.chart.Revenue
	default:
		return nil, newLedgerError("unknown document kind %q", doc.Kind)
	}

	target := doc.ID
	postings := make([]Posting, 0, len(doc.LineItems)+1)
	for _, line := range doc.LineItems {
		amount := valueobject.MustMoney(line.Amount, doc.Currency)
		if amount.IsZero() {
			continue
		}
		postings = append(postings, signedPosting(lineAccount, opposite(controlSide), amount, nil, line.ID.String()))
	}
	total := doc.TotalMoney()
	if !total.IsZero() {
		postings = append(postings, signedPosting(control, controlSide, total, &target, "total"))
	}
	return postings, nil
}

func (s *Synchronizer) paymentPostings(ctx context.Context, payment *payables.VendorPayment) ([]Posting, error) {
	if !s.chart.Supports(payment.Currency) {
		return nil, newLedgerError("unsupported currency %q on vendor payment %s", payment.Currency, payment.ID)
	}

	ids := make([]uuid.UUID, 0, len(payment.Items))
	for _, item := range payment.Items {
		if target := item.TargetID(); target != nil {
			ids = append(ids, *target)
		}
	}
	targets := make(map[uuid.UUID]*payables.Document, len(ids))
	if len(ids) > 0 {
		docs, err := s.documents.FindByIDsForTenant(ctx, payment.TenantID, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load payment targets: %w", err)
		}
		for _, doc := range docs {
			targets[doc.ID] = doc
		}
	}

	applied := valueobject.Zero(payment.Currency)
	fees := valueobject.Zero(payment.Currency)
	postings := make([]Posting, 0, len(payment.Items)+2)
	for _, item := range payment.Items {
		amount := valueobject.MustMoney(item.Amount, item.Currency)
		source := item.ID.String()
		var err error

		switch {
		case item.IsFee():
			postings = append(postings, Posting{Account: s.chart.FeeExpense, Side: SideDebit, Amount: amount, Source: source})
			fees, err = fees.Add(amount)
		case item.BillID != nil:
			if err := checkReference(payment, targets[*item.BillID], *item.BillID, payables.DocumentKindBill); err != nil {
				return nil, err
			}
			postings = append(postings, Posting{Account: s.chart.AccountsPayable, Side: SideDebit, Amount: amount, TargetDocumentID: item.BillID, Source: source})
			applied, err = applied.Add(amount)
		case item.VendorCreditID != nil:
			if err := checkReference(payment, targets[*item.VendorCreditID], *item.VendorCreditID, payables.DocumentKindVendorCredit); err != nil {
				return nil, err
			}
			postings = append(postings, Posting{Account: s.chart.AccountsPayable, Side: SideCredit, Amount: amount, TargetDocumentID: item.VendorCreditID, Source: source})
			applied, err = applied.Subtract(amount)
		default:
			return nil, newLedgerError("payment item %s has no target", item.ID)
		}
		if err != nil {
			return nil, &LedgerError{Message: fmt.Sprintf("payment item %s is not in %s", item.ID, payment.Currency), Err: err}
		}
	}

	amount := payment.AmountMoney()
	unapplied, err := amount.Subtract(applied)
	if err != nil {
		return nil, &LedgerError{Message: "payment amount currency mismatch", Err: err}
	}
	if unapplied.IsPositive() {
		postings = append(postings, Posting{Account: s.chart.VendorPrepayments, Side: SideDebit, Amount: unapplied, Source: "unapplied"})
	}
	paid, err := amount.Add(fees)
	if err != nil {
		return nil, &LedgerError{Message: "payment fee currency mismatch", Err: err}
	}
	if !paid.IsZero() {
		postings = append(postings, Posting{Account: s.chart.Bank, Side: SideCredit, Amount: paid, Source: "bank"})
	}
	return postings, nil
}

func checkReference(payment *payables.VendorPayment, doc *payables.Document, id uuid.UUID, kind payables.DocumentKind) error {
	switch {
	case doc == nil:
		return newLedgerError("payment %s references missing document %s", payment.ID, id)
	case doc.Kind != kind:
		return newLedgerError("payment %s references %s %s as a %s", payment.ID, doc.Kind, doc.Number, kind)
	case doc.CounterpartyID != payment.VendorID:
		return newLedgerError("payment %s references %s %s of another vendor", payment.ID, doc.Kind, doc.Number)
	case doc.Currency != payment.Currency:
		return newLedgerError("payment %s in %s references %s %s in %s", payment.ID, payment.Currency, doc.Kind, doc.Number, doc.Currency)
	case doc.Voided || !doc.Status.IsPosted():
		return newLedgerError("payment %s references %s %s in status %s", payment.ID, doc.Kind, doc.Number, doc.Status)
	}
	return nil
}

// apply diffs desired postings against the active entries of a source and
// writes the difference. It returns every target document referenced before
// or after the sync.
func (s *Synchronizer) apply(
	ctx context.Context,
	tenantID, sourceID uuid.UUID,
	kind string,
	counterpartyID uuid.UUID,
	currency valueobject.Currency,
	postings []Posting,
) (SyncResult, []uuid.UUID, error) {
	if len(postings) > 0 {
		if err := checkBalanced(currency, postings); err != nil {
			return SyncResult{}, nil, err
		}
	}

	active, err := s.entries.FindActiveByDocument(ctx, tenantID, sourceID)
	if err != nil {
		return SyncResult{}, nil, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	targets := newIDSet()
	desired := make(map[uuid.UUID]bool, len(postings))
	keys := make([]uuid.UUID, len(postings))
	for i, p := range postings {
		key := p.Key(sourceID)
		if desired[key] {
			return SyncResult{}, nil, newLedgerError("duplicate posting to %s for %s", p.Account, sourceID)
		}
		desired[key] = true
		keys[i] = key
		targets.add(p.TargetDocumentID)
	}

	posted := make(map[uuid.UUID]bool, len(active))
	stale := make([]uuid.UUID, 0)
	for _, e := range active {
		targets.add(e.TargetDocumentID)
		if !desired[e.PostingKey] || posted[e.PostingKey] {
			stale = append(stale, e.ID)
			continue
		}
		posted[e.PostingKey] = true
	}

	now := s.now()
	inserts := make([]Entry, 0)
	for i, p := range postings {
		if posted[keys[i]] {
			continue
		}
		inserts = append(inserts, Entry{
			ID:               uuid.New(),
			TenantID:         tenantID,
			DocumentID:       sourceID,
			DocumentKind:     kind,
			Account:          p.Account,
			Side:             p.Side,
			Amount:           p.Amount.Amount(),
			Currency:         p.Amount.Currency(),
			CounterpartyID:   counterpartyID,
			TargetDocumentID: p.TargetDocumentID,
			PostingKey:       keys[i],
			PostedAt:         now,
		})
	}

	if len(stale) > 0 {
		if err := s.entries.Supersede(ctx, tenantID, stale, now); err != nil {
			return SyncResult{}, nil, fmt.Errorf("failed to supersede ledger entries: %w", err)
		}
	}
	if len(inserts) > 0 {
		if err := s.entries.CreateBatch(ctx, inserts); err != nil {
			return SyncResult{}, nil, fmt.Errorf("failed to post ledger entries: %w", err)
		}
	}

	return SyncResult{Posted: len(inserts), Superseded: len(stale)}, targets.ids, nil
}

// recalculate settles the given documents against their ledger entries.
// A bill that becomes paid moves its linked network document to paid when
// the network document's rules allow it.
func (s *Synchronizer) recalculate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := s.documents.FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents for recalculation: %w", err)
	}

	changed := make([]uuid.UUID, 0, len(docs))
	for _, doc := range docs {
		ok, err := s.settle(ctx, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			changed = append(changed, doc.ID)
		}
	}
	return changed, nil
}

// settle refreshes one posted document from its ledger entries and saves it
// when the balance or status moved. Bills follow their balance between
// APPROVED and PAID.
func (s *Synchronizer) settle(ctx context.Context, doc *payables.Document) (bool, error) {
	if doc.Voided || !doc.Status.IsPosted() {
		return false, nil
	}
	balance, err := s.balanceOf(ctx, doc)
	if err != nil {
		return false, err
	}

	prevBalance, prevStatus := doc.Balance, doc.Status
	if doc.Kind == payables.DocumentKindBill {
		_, err = doc.ApplyBalance(balance)
	} else {
		err = doc.RefreshBalance(balance)
	}
	if err != nil {
		return false, err
	}
	if doc.Balance.Equal(prevBalance) && doc.Status == prevStatus {
		return false, nil
	}

	if err := s.documents.SaveWithLock(ctx, doc); err != nil {
		return false, fmt.Errorf("failed to save %s %s: %w", doc.Kind, doc.Number, err)
	}
	if doc.Status == payables.DocumentStatusPaid && prevStatus != payables.DocumentStatusPaid {
		if err := s.markNetworkPaid(ctx, doc); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Synchronizer) markNetworkPaid(ctx context.Context, doc *payables.Document) error {
	if s.network == nil {
		return nil
	}
	linked, err := s.network.FindByDocument(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to load network document of %s: %w", doc.Number, err)
	}
	if linked == nil || !linked.TryTransition(payables.NetworkStatusPaid) {
		return nil
	}
	if err := s.network.Save(ctx, linked); err != nil {
		return fmt.Errorf("failed to save network document of %s: %w", doc.Number, err)
	}
	return nil
}

// balanceOf sums the active control-account entries that reference doc
func (s *Synchronizer) balanceOf(ctx context.Context, doc *payables.Document) (valueobject.Money, error) {
	account, normal := s.chart.AccountsPayable, SideCredit
	switch doc.Kind {
	case payables.DocumentKindVendorCredit:
		normal = SideDebit
	case payables.DocumentKindInvoice:
		account, normal = s.chart.AccountsReceivable, SideDebit
	case payables.DocumentKindCreditNote:
		account = s.chart.AccountsReceivable
	}

	entries, err := s.entries.FindActiveByTarget(ctx, doc.TenantID, doc.ID)
	if err != nil {
		return valueobject.Money{}, fmt.Errorf("failed to load entries of %s %s: %w", doc.Kind, doc.Number, err)
	}
	balance := valueobject.Zero(doc.Currency)
	for i := range entries {
		if entries[i].Account != account {
			continue
		}
		next, err := balance.Add(entries[i].Signed(normal))
		if err != nil {
			return valueobject.Money{}, &LedgerError{Message: fmt.Sprintf("entry %s does not match %s %s currency", entries[i].ID, doc.Kind, doc.Number), Err: err}
		}
		balance = next
	}
	return balance, nil
}

func signedPosting(account string, side Side, amount valueobject.Money, target *uuid.UUID, source string) Posting {
	if amount.IsNegative() {
		side = opposite(side)
		amount = amount.Abs()
	}
	return Posting{Account: account, Side: side, Amount: amount, TargetDocumentID: target, Source: source}
}

func opposite(side Side) Side {
	if side == SideDebit {
		return SideCredit
	}
	return SideDebit
}

type idSet struct {
	seen map[uuid.UUID]bool
	ids  []uuid.UUID
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[uuid.UUID]bool)}
}

func (s *idSet) add(id *uuid.UUID) {
	if id == nil || s.seen[*id] {
		return
	}
	s.seen[*id] = true
	s.ids = append(s.ids, *id)
}

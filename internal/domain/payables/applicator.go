package payables

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentItemInput is one proposed application row. A nil ID creates a new item.
type PaymentItemInput struct {
	ID             *uuid.UUID
	Type           PaymentItemType
	BillID         *uuid.UUID
	VendorCreditID *uuid.UUID
	Amount         valueobject.Money
}

// TargetID returns the referenced document id, nil for fees
func (in PaymentItemInput) TargetID() *uuid.UUID {
	if in.BillID != nil {
		return in.BillID
	}
	return in.VendorCreditID
}

// RowsFromItems turns persisted items back into input rows
func RowsFromItems(items []PaymentItem) []PaymentItemInput {
	rows := make([]PaymentItemInput, len(items))
	for i := range items {
		id := items[i].ID
		rows[i] = PaymentItemInput{
			ID:             &id,
			Type:           items[i].Type,
			BillID:         items[i].BillID,
			VendorCreditID: items[i].VendorCreditID,
			Amount:         items[i].AmountMoney(),
		}
	}
	return rows
}

// PaymentPlan is the validated item set for a payment
type PaymentPlan struct {
	Items   []PaymentItem
	Applied valueobject.Money // bill and vendor credit applications
	Fees    valueobject.Money
	Removed []uuid.UUID
}

// KeepIDs returns the ids of the planned items
func (p PaymentPlan) KeepIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

// PaymentApplicator validates how a vendor payment is applied to bills and vendor credits.
// The whole proposed set is checked before anything is persisted: the sum of all
// non-fee items may not exceed the payment amount.
type PaymentApplicator struct{}

// NewPaymentApplicator creates a new PaymentApplicator
func NewPaymentApplicator() *PaymentApplicator {
	return &PaymentApplicator{}
}

// Plan validates rows against the payment and the referenced documents.
// targets must contain every document referenced by the rows, keyed by id.
func (a *PaymentApplicator) Plan(payment *VendorPayment, rows []PaymentItemInput, targets map[uuid.UUID]*Document) (PaymentPlan, error) {
	if err := payment.EnsureMutable(); err != nil {
		return PaymentPlan{}, err
	}

	applied := valueobject.Zero(payment.Currency)
	fees := valueobject.Zero(payment.Currency)
	items := make([]PaymentItem, 0, len(rows))
	seen := make(map[uuid.UUID]bool, len(rows))

	for i, row := range rows {
		item, err := a.planRow(payment, i+1, row, targets)
		if err != nil {
			return PaymentPlan{}, err
		}
		if seen[item.ID] {
			return PaymentPlan{}, shared.NewDomainError("INVALID_PAYMENT_ITEM",
				fmt.Sprintf("Payment item %s was submitted twice", item.ID))
		}
		seen[item.ID] = true

		amount := item.AmountMoney()
		if item.IsFee() {
			fees, err = fees.Add(amount)
		} else {
			applied, err = applied.Add(amount)
		}
		if err != nil {
			return PaymentPlan{}, err
		}
		items = append(items, item)
	}

	exceeds, err := applied.GreaterThan(payment.AmountMoney())
	if err != nil {
		return PaymentPlan{}, err
	}
	if exceeds {
		return PaymentPlan{}, shared.NewDomainError("AMOUNT_EXCEEDED",
			fmt.Sprintf("Applied amount %s exceeds payment amount %s", applied, payment.AmountMoney()))
	}

	removed := make([]uuid.UUID, 0)
	for _, item := range payment.Items {
		if !seen[item.ID] {
			removed = append(removed, item.ID)
		}
	}

	return PaymentPlan{
		Items:   items,
		Applied: applied,
		Fees:    fees,
		Removed: removed,
	}, nil
}

func (a *PaymentApplicator) planRow(payment *VendorPayment, line int, row PaymentItemInput, targets map[uuid.UUID]*Document) (PaymentItem, error) {
	var item PaymentItem
	if row.ID != nil {
		existing := payment.FindItem(*row.ID)
		if existing == nil {
			return PaymentItem{}, shared.NewDomainError("PAYMENT_ITEM_NOT_FOUND",
				fmt.Sprintf("Payment item %s does not belong to payment %s", *row.ID, payment.ID))
		}
		item = *existing
	} else {
		item = PaymentItem{
			ID:        uuid.New(),
			TenantID:  payment.TenantID,
			PaymentID: payment.ID,
		}
	}

	itemType := row.Type
	if itemType == "" {
		itemType = PaymentItemTypeApplication
	}
	if !itemType.IsValid() {
		return PaymentItem{}, shared.NewDomainError("INVALID_PAYMENT_ITEM", fmt.Sprintf("Row %d has unknown type %q", line, itemType))
	}

	hasBill := row.BillID != nil
	hasCredit := row.VendorCreditID != nil
	if itemType == PaymentItemTypeConvenienceFee {
		if hasBill || hasCredit {
			return PaymentItem{}, shared.NewDomainError("INVALID_PAYMENT_ITEM", fmt.Sprintf("Row %d: a convenience fee cannot reference a document", line))
		}
	} else if hasBill == hasCredit {
		return PaymentItem{}, shared.NewDomainError("INVALID_PAYMENT_ITEM", fmt.Sprintf("Row %d must reference exactly one bill or vendor credit", line))
	}

	if row.Amount.Currency() != payment.Currency {
		return PaymentItem{}, shared.NewDomainError("CURRENCY_MISMATCH",
			fmt.Sprintf("Row %d is in %s but the payment currency is %s", line, row.Amount.Currency(), payment.Currency))
	}
	if !row.Amount.IsPositive() {
		return PaymentItem{}, shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Row %d amount must be positive", line))
	}

	if target := row.TargetID(); target != nil {
		want := DocumentKindBill
		if hasCredit {
			want = DocumentKindVendorCredit
		}
		if err := checkTarget(payment, line, targets[*target], *target, want); err != nil {
			return PaymentItem{}, err
		}
	}

	item.Type = itemType
	item.BillID = row.BillID
	item.VendorCreditID = row.VendorCreditID
	item.Amount = row.Amount.Amount()
	item.Currency = payment.Currency
	return item, nil
}

func checkTarget(payment *VendorPayment, line int, doc *Document, id uuid.UUID, want DocumentKind) error {
	if doc == nil || doc.TenantID != payment.TenantID {
		return shared.NewDomainError("DOCUMENT_NOT_FOUND", fmt.Sprintf("Row %d references unknown document %s", line, id))
	}
	if doc.Kind != want {
		return shared.NewDomainError("INVALID_PAYMENT_ITEM", fmt.Sprintf("Row %d: %s %s is not a %s", line, doc.Kind, doc.Number, want))
	}
	if doc.CounterpartyID != payment.VendorID {
		return shared.NewDomainError("INVALID_PAYMENT_ITEM", fmt.Sprintf("Row %d: %s %s belongs to another vendor", line, doc.Kind, doc.Number))
	}
	if doc.Currency != payment.Currency {
		return shared.NewDomainError("CURRENCY_MISMATCH", fmt.Sprintf("Row %d: %s %s is in %s", line, doc.Kind, doc.Number, doc.Currency))
	}
	if doc.Voided || !doc.Status.CanReceivePayment() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Row %d: %s %s cannot receive payments while %s", line, doc.Kind, doc.Number, doc.Status))
	}
	return nil
}

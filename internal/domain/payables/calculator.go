package payables

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LineItemInput is one submitted line. A nil ID creates a new line.
type LineItemInput struct {
	ID          *uuid.UUID
	Description string
	Amount      valueobject.Money
}

// LineItemResult is the reconciled line-item set of a document edit
type LineItemResult struct {
	Items   []LineItem
	Total   valueobject.Money
	Removed []uuid.UUID // persisted lines absent from the submitted set
}

// KeepIDs returns the ids of the reconciled lines
func (r LineItemResult) KeepIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Items))
	for i, item := range r.Items {
		ids[i] = item.ID
	}
	return ids
}

// LineItemCalculator recomputes document totals from submitted line items.
// Submitted lines fully replace the persisted set: lines with an id update
// the matching row, lines without one are created, and persisted lines that
// were not submitted are reported as removed.
type LineItemCalculator struct{}

// NewLineItemCalculator creates a new LineItemCalculator
func NewLineItemCalculator() *LineItemCalculator {
	return &LineItemCalculator{}
}

// Calculate reconciles submitted lines against the persisted ones.
// Order is assigned 1..n in submission order and the total is accumulated
// in the document currency; a line in any other currency is rejected.
func (c *LineItemCalculator) Calculate(doc *Document, persisted []LineItem, submitted []LineItemInput) (LineItemResult, error) {
	existing := make(map[uuid.UUID]LineItem, len(persisted))
	for _, item := range persisted {
		existing[item.ID] = item
	}

	total := valueobject.Zero(doc.Currency)
	items := make([]LineItem, 0, len(submitted))
	seen := make(map[uuid.UUID]bool, len(submitted))

	for i, in := range submitted {
		if in.Amount.Currency() != doc.Currency {
			return LineItemResult{}, shared.NewDomainError("CURRENCY_MISMATCH",
				fmt.Sprintf("Line %d is in %s but the document currency is %s", i+1, in.Amount.Currency(), doc.Currency))
		}

		var item LineItem
		if in.ID != nil {
			prev, ok := existing[*in.ID]
			if !ok {
				return LineItemResult{}, shared.NewDomainError("INVALID_LINE_ITEM",
					fmt.Sprintf("Line item %s does not belong to %s %s", *in.ID, doc.Kind, doc.Number))
			}
			if seen[prev.ID] {
				return LineItemResult{}, shared.NewDomainError("INVALID_LINE_ITEM",
					fmt.Sprintf("Line item %s was submitted twice", prev.ID))
			}
			item = prev
		} else {
			item = LineItem{
				ID:         uuid.New(),
				TenantID:   doc.TenantID,
				DocumentID: doc.ID,
			}
		}
		seen[item.ID] = true

		item.Order = i + 1
		item.Description = in.Description
		item.Amount = in.Amount.Amount()
		item.Currency = doc.Currency

		next, err := total.Add(in.Amount)
		if err != nil {
			return LineItemResult{}, err
		}
		total = next
		items = append(items, item)
	}

	removed := make([]uuid.UUID, 0)
	for _, item := range persisted {
		if !seen[item.ID] {
			removed = append(removed, item.ID)
		}
	}

	return LineItemResult{
		Items:   items,
		Total:   total,
		Removed: removed,
	}, nil
}

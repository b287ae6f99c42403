package payables

import (
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItemCalculator_Calculate(t *testing.T) {
	calc := NewLineItemCalculator()

	t.Run("new lines get dense order and a summed total", func(t *testing.T) {
		doc := newTestBill(t, DocumentStatusDraft)
		result, err := calc.Calculate(doc, nil, []LineItemInput{
			{Description: "Paper", Amount: usd(t, "10.10")},
			{Description: "Toner", Amount: usd(t, "20.20")},
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, 1, result.Items[0].Order)
		assert.Equal(t, 2, result.Items[1].Order)
		assert.Equal(t, "30.30", result.Total.ToDecimal())
		assert.Empty(t, result.Removed)
		assert.Equal(t, doc.ID, result.Items[0].DocumentID)
	})

	t.Run("submitted set replaces persisted lines", func(t *testing.T) {
		doc := newTestBill(t, DocumentStatusDraft)
		a := LineItem{ID: uuid.New(), TenantID: doc.TenantID, DocumentID: doc.ID, Order: 1, Amount: usd(t, "1").Amount(), Currency: valueobject.USD}
		b := LineItem{ID: uuid.New(), TenantID: doc.TenantID, DocumentID: doc.ID, Order: 2, Amount: usd(t, "2").Amount(), Currency: valueobject.USD}
		c := LineItem{ID: uuid.New(), TenantID: doc.TenantID, DocumentID: doc.ID, Order: 3, Amount: usd(t, "3").Amount(), Currency: valueobject.USD}

		result, err := calc.Calculate(doc, []LineItem{a, b, c}, []LineItemInput{
			{ID: &c.ID, Description: "third first", Amount: usd(t, "3")},
			{ID: &a.ID, Description: "first second", Amount: usd(t, "1.50")},
		})
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
		assert.Equal(t, c.ID, result.Items[0].ID)
		assert.Equal(t, 1, result.Items[0].Order)
		assert.Equal(t, a.ID, result.Items[1].ID)
		assert.Equal(t, 2, result.Items[1].Order)
		assert.Equal(t, []uuid.UUID{b.ID}, result.Removed)
		assert.ElementsMatch(t, []uuid.UUID{a.ID, c.ID}, result.KeepIDs())
		assert.Equal(t, "4.50", result.Total.ToDecimal())
	})

	t.Run("line in another currency is rejected", func(t *testing.T) {
		doc := newTestBill(t, DocumentStatusDraft)
		eur, err := valueobject.FromDecimal(valueobject.EUR, "5")
		require.NoError(t, err)
		_, err = calc.Calculate(doc, nil, []LineItemInput{{Amount: usd(t, "1")}, {Amount: eur}})
		assert.True(t, shared.HasCode(err, "CURRENCY_MISMATCH"))
	})

	t.Run("line id from another document is rejected", func(t *testing.T) {
		doc := newTestBill(t, DocumentStatusDraft)
		foreign := uuid.New()
		_, err := calc.Calculate(doc, nil, []LineItemInput{{ID: &foreign, Amount: usd(t, "1")}})
		assert.True(t, shared.HasCode(err, "INVALID_LINE_ITEM"))
	})

	t.Run("empty submission removes every line", func(t *testing.T) {
		doc := newTestBill(t, DocumentStatusDraft)
		a := LineItem{ID: uuid.New(), DocumentID: doc.ID, Currency: valueobject.USD}
		result, err := calc.Calculate(doc, []LineItem{a}, nil)
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.True(t, result.Total.IsZero())
		assert.Equal(t, []uuid.UUID{a.ID}, result.Removed)
	})
}

package ledger

import (
	"github.com/erp/ledger/internal/domain/shared/valueobject"
)

// ChartOfAccounts names the accounts the synchronizer posts to
type ChartOfAccounts struct {
	AccountsPayable    string
	AccountsReceivable string
	Expense            string
	Revenue            string
	Bank               string
	VendorPrepayments  string
	FeeExpense         string
	Adjustments        string

	// Currencies restricts postings to these currencies; empty allows every known currency
	Currencies []valueobject.Currency
}

// DefaultChartOfAccounts returns the standard account codes
func DefaultChartOfAccounts() ChartOfAccounts {
	return ChartOfAccounts{
		AccountsPayable:    "2000",
		AccountsReceivable: "1200",
		Expense:            "6000",
		Revenue:            "4000",
		Bank:               "1000",
		VendorPrepayments:  "1400",
		FeeExpense:         "6800",
		Adjustments:        "6900",
	}
}

// Supports reports whether postings in the currency are allowed
func (c ChartOfAccounts) Supports(currency valueobject.Currency) bool {
	parsed, err := valueobject.ParseCurrency(string(currency))
	if err != nil || parsed != currency {
		return false
	}
	if len(c.Currencies) == 0 {
		return true
	}
	for _, allowed := range c.Currencies {
		if allowed == currency {
			return true
		}
	}
	return false
}

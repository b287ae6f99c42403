package payables

// DocumentStatus represents the lifecycle status of a payable or receivable document
type DocumentStatus string

const (
	DocumentStatusDraft    DocumentStatus = "DRAFT"    // Being prepared, no ledger effect
	DocumentStatusIssued   DocumentStatus = "ISSUED"   // Posted, awaiting approval
	DocumentStatusApproved DocumentStatus = "APPROVED" // Approved for payment
	DocumentStatusPaid     DocumentStatus = "PAID"     // Balance settled
	DocumentStatusClosed   DocumentStatus = "CLOSED"   // Closed without full settlement
	DocumentStatusVoided   DocumentStatus = "VOIDED"   // Voided, terminal
)

// documentTransitions lists the legal next states per status
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	DocumentStatusDraft:    {DocumentStatusIssued, DocumentStatusApproved, DocumentStatusVoided},
	DocumentStatusIssued:   {DocumentStatusApproved, DocumentStatusPaid, DocumentStatusClosed, DocumentStatusVoided},
	DocumentStatusApproved: {DocumentStatusIssued, DocumentStatusPaid, DocumentStatusClosed, DocumentStatusVoided},
	DocumentStatusPaid:     {DocumentStatusApproved, DocumentStatusClosed, DocumentStatusVoided},
	DocumentStatusClosed:   {DocumentStatusVoided},
	DocumentStatusVoided:   {},
}

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	_, ok := documentTransitions[s]
	return ok
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is possible
func (s DocumentStatus) IsTerminal() bool {
	return s == DocumentStatusVoided
}

// IsPosted returns true if documents in this status carry ledger effects
func (s DocumentStatus) IsPosted() bool {
	return s != DocumentStatusDraft && s != DocumentStatusVoided
}

// CanTransitionTo reports whether moving to next is allowed
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	for _, allowed := range documentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanReceivePayment returns true if payments may be applied to documents in this status
func (s DocumentStatus) CanReceivePayment() bool {
	return s == DocumentStatusIssued || s == DocumentStatusApproved || s == DocumentStatusPaid
}

// DocumentKind identifies the concrete document type
type DocumentKind string

const (
	DocumentKindBill         DocumentKind = "BILL"
	DocumentKindVendorCredit DocumentKind = "VENDOR_CREDIT"
	DocumentKindInvoice      DocumentKind = "INVOICE"
	DocumentKindCreditNote   DocumentKind = "CREDIT_NOTE"
	DocumentKindEstimate     DocumentKind = "ESTIMATE"
)

// IsValid checks if the kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindBill, DocumentKindVendorCredit, DocumentKindInvoice,
		DocumentKindCreditNote, DocumentKindEstimate:
		return true
	}
	return false
}

// IsPayable returns true for vendor-side documents
func (k DocumentKind) IsPayable() bool {
	return k == DocumentKindBill || k == DocumentKindVendorCredit
}

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

package trade

import "fmt"

// InvoiceStatus is the closed set of invoice lifecycle states
type InvoiceStatus string

const (
	// InvoiceStatusDraft is a form buffer with no stock effect
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusPosted has its stock effect committed
	InvoiceStatusPosted InvoiceStatus = "POSTED"
	// InvoiceStatusInitial is an opening-stock purchase: stock like Posted, excluded from P&L
	InvoiceStatusInitial InvoiceStatus = "INITIAL"
	// InvoiceStatusReturned is terminal; its stock effect has been reversed
	InvoiceStatusReturned InvoiceStatus = "RETURNED"
)

// IsValid checks if the status is a known InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPosted, InvoiceStatusInitial, InvoiceStatusReturned:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// AffectsStock reports whether the invoice's lines are currently applied to the ledger
func (s InvoiceStatus) AffectsStock() bool {
	switch s {
	case InvoiceStatusPosted, InvoiceStatusInitial:
		return true
	case InvoiceStatusDraft, InvoiceStatusReturned:
		return false
	}
	panic(fmt.Sprintf("trade: unhandled invoice status %q", string(s)))
}

// CountsInProfitLoss reports whether the invoice contributes to profit and expense totals
func (s InvoiceStatus) CountsInProfitLoss() bool {
	switch s {
	case InvoiceStatusPosted:
		return true
	case InvoiceStatusDraft, InvoiceStatusInitial, InvoiceStatusReturned:
		return false
	}
	panic(fmt.Sprintf("trade: unhandled invoice status %q", string(s)))
}

// CarriesDue reports whether the invoice participates in due settlement.
// Opening-stock invoices carry a due like any other purchase.
func (s InvoiceStatus) CarriesDue() bool {
	switch s {
	case InvoiceStatusPosted, InvoiceStatusInitial:
		return true
	case InvoiceStatusDraft, InvoiceStatusReturned:
		return false
	}
	panic(fmt.Sprintf("trade: unhandled invoice status %q", string(s)))
}

// IsTerminal reports whether no further transition is allowed
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusReturned
}

// CanTransitionTo checks if the status can transition to the target status.
// Posted and Initial may transition to themselves, which is an edit.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusPosted || target == InvoiceStatusInitial
	case InvoiceStatusPosted:
		return target == InvoiceStatusPosted || target == InvoiceStatusReturned
	case InvoiceStatusInitial:
		return target == InvoiceStatusInitial || target == InvoiceStatusReturned
	case InvoiceStatusReturned:
		return false
	}
	return false
}

package commission

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger aggregates generated and paid commission. Balances are always
// recomputed from the two collections and never stored.
type Ledger struct {
	invoices []*DiagnosticInvoice
	payments []*CommissionPayment
}

// NewLedger creates a read-only ledger view
func NewLedger(invoices []*DiagnosticInvoice, payments []*CommissionPayment) *Ledger {
	return &Ledger{invoices: invoices, payments: payments}
}

// GeneratedFor sums commission on every invoice referencing the referrer
func (l *Ledger) GeneratedFor(referrerID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range l.invoices {
		if inv.ReferredBy(referrerID) {
			total = total.Add(inv.Commission)
		}
	}
	return total
}

// PaidFor sums payouts to the referrer
func (l *Ledger) PaidFor(referrerID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, p := range l.payments {
		if p.ReferrerID == referrerID {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Balance is generated minus paid. Negative means overpaid.
func (l *Ledger) Balance(referrerID uuid.UUID) decimal.Decimal {
	return l.GeneratedFor(referrerID).Sub(l.PaidFor(referrerID))
}

// Statement is a per-referrer view of the ledger
type Statement struct {
	Referrer  *Referrer
	Generated decimal.Decimal
	Paid      decimal.Decimal
	Balance   decimal.Decimal
	Overpaid  bool
	Invoices  []*DiagnosticInvoice
	Payments  []*CommissionPayment
}

// Statement builds the full statement for a referrer
func (l *Ledger) Statement(r *Referrer) Statement {
	st := Statement{
		Referrer:  r,
		Generated: l.GeneratedFor(r.ID),
		Paid:      l.PaidFor(r.ID),
		Invoices:  make([]*DiagnosticInvoice, 0),
		Payments:  make([]*CommissionPayment, 0),
	}
	st.Balance = st.Generated.Sub(st.Paid)
	st.Overpaid = st.Balance.IsNegative()

	for _, inv := range l.invoices {
		if inv.ReferredBy(r.ID) {
			st.Invoices = append(st.Invoices, inv)
		}
	}
	for _, p := range l.payments {
		if p.ReferrerID == r.ID {
			st.Payments = append(st.Payments, p)
		}
	}
	return st
}

// Summary builds statements for every referrer, without the detail lists
func (l *Ledger) Summary(referrers []*Referrer) []Statement {
	out := make([]Statement, 0, len(referrers))
	for _, r := range referrers {
		generated := l.GeneratedFor(r.ID)
		paid := l.PaidFor(r.ID)
		balance := generated.Sub(paid)
		out = append(out, Statement{
			Referrer:  r,
			Generated: generated,
			Paid:      paid,
			Balance:   balance,
			Overpaid:  balance.IsNegative(),
		})
	}
	return out
}

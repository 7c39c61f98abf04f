package report

import (
	"time"

	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// Period bounds a report. Zero values leave that side open.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls inside the period, inclusive
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && t.After(p.To) {
		return false
	}
	return true
}

// ProfitLoss is the trading summary. Opening-stock invoices never contribute.
type ProfitLoss struct {
	Period          Period
	SalesRevenue    decimal.Decimal
	SalesDiscount   decimal.Decimal
	PurchaseExpense decimal.Decimal
	GrossProfit     decimal.Decimal
	SalesCount      int
	PurchaseCount   int
}

// BuildProfitLoss aggregates posted sales against posted purchases in the period
func BuildProfitLoss(period Period, purchases []*trade.PurchaseInvoice, sales []*trade.SalesInvoice) ProfitLoss {
	pl := ProfitLoss{
		Period:          period,
		SalesRevenue:    decimal.Zero,
		SalesDiscount:   decimal.Zero,
		PurchaseExpense: decimal.Zero,
	}

	for _, s := range sales {
		if !s.Status.CountsInProfitLoss() || !period.Contains(s.Date) {
			continue
		}
		pl.SalesRevenue = pl.SalesRevenue.Add(s.NetPayable)
		pl.SalesDiscount = pl.SalesDiscount.Add(s.Discount)
		pl.SalesCount++
	}
	for _, p := range purchases {
		if !p.Status.CountsInProfitLoss() || !period.Contains(p.Date) {
			continue
		}
		pl.PurchaseExpense = pl.PurchaseExpense.Add(p.NetPayable)
		pl.PurchaseCount++
	}

	pl.GrossProfit = pl.SalesRevenue.Sub(pl.PurchaseExpense)
	return pl
}

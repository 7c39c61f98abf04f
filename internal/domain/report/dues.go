package report

import (
	"sort"

	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// CounterpartyDue is the outstanding balance with one supplier or customer
type CounterpartyDue struct {
	Name         string
	InvoiceCount int
	NetPayable   decimal.Decimal
	PaidAmount   decimal.Decimal
	DueAmount    decimal.Decimal
}

// DueSummary lists supplier dues (we owe) and customer dues (owed to us)
type DueSummary struct {
	Suppliers       []CounterpartyDue
	Customers       []CounterpartyDue
	TotalPayable    decimal.Decimal
	TotalReceivable decimal.Decimal
}

// BuildDueSummary groups outstanding invoice dues by counterparty. Opening-stock
// purchases carry a due like any other purchase; returned invoices are skipped.
func BuildDueSummary(purchases []*trade.PurchaseInvoice, sales []*trade.SalesInvoice) DueSummary {
	suppliers := newDueGroup()
	for _, p := range purchases {
		if !p.Status.CarriesDue() {
			continue
		}
		suppliers.add(p.SupplierName, p.NetPayable, p.PaidAmount, p.DueAmount)
	}

	customers := newDueGroup()
	for _, s := range sales {
		if !s.Status.CarriesDue() {
			continue
		}
		customers.add(s.Customer.DisplayName(), s.NetPayable, s.PaidAmount, s.DueAmount)
	}

	return DueSummary{
		Suppliers:       suppliers.list(),
		Customers:       customers.list(),
		TotalPayable:    suppliers.total,
		TotalReceivable: customers.total,
	}
}

type dueGroup struct {
	byName map[string]*CounterpartyDue
	total  decimal.Decimal
}

func newDueGroup() *dueGroup {
	return &dueGroup{byName: make(map[string]*CounterpartyDue), total: decimal.Zero}
}

func (g *dueGroup) add(name string, net, paid, due decimal.Decimal) {
	entry, ok := g.byName[name]
	if !ok {
		entry = &CounterpartyDue{Name: name, NetPayable: decimal.Zero, PaidAmount: decimal.Zero, DueAmount: decimal.Zero}
		g.byName[name] = entry
	}
	entry.InvoiceCount++
	entry.NetPayable = entry.NetPayable.Add(net)
	entry.PaidAmount = entry.PaidAmount.Add(paid)
	entry.DueAmount = entry.DueAmount.Add(due)
	g.total = g.total.Add(due)
}

// list orders by due descending, then name
func (g *dueGroup) list() []CounterpartyDue {
	out := make([]CounterpartyDue, 0, len(g.byName))
	for _, e := range g.byName {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].DueAmount.Cmp(out[j].DueAmount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

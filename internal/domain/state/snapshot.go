package state

import (
	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/commission"
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/google/uuid"
)

// Snapshot is the complete application state the engine operates on.
// Every collection keeps insertion order.
type Snapshot struct {
	Revision           int64
	Items              *catalog.Catalog
	PurchaseInvoices   *shared.Collection[*trade.PurchaseInvoice]
	SalesInvoices      *shared.Collection[*trade.SalesInvoice]
	Referrers          *shared.Collection[*commission.Referrer]
	CommissionPayments *shared.Collection[*commission.CommissionPayment]
	DiagnosticInvoices *shared.Collection[*commission.DiagnosticInvoice]
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Items:              catalog.NewCatalog(),
		PurchaseInvoices:   shared.NewCollection[*trade.PurchaseInvoice](),
		SalesInvoices:      shared.NewCollection[*trade.SalesInvoice](),
		Referrers:          shared.NewCollection[*commission.Referrer](),
		CommissionPayments: shared.NewCollection[*commission.CommissionPayment](),
		DiagnosticInvoices: shared.NewCollection[*commission.DiagnosticInvoice](),
	}
}

// Clone deep-copies the snapshot
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		Revision:           s.Revision,
		Items:              s.Items.Clone(),
		PurchaseInvoices:   s.PurchaseInvoices.Clone(),
		SalesInvoices:      s.SalesInvoices.Clone(),
		Referrers:          s.Referrers.Clone(),
		CommissionPayments: s.CommissionPayments.Clone(),
		DiagnosticInvoices: s.DiagnosticInvoices.Clone(),
	}
}

// Ledger returns the stock ledger over this snapshot's catalog
func (s *Snapshot) Ledger() *inventory.Ledger {
	return inventory.NewLedger(s.Items)
}

// CommissionLedger returns a commission view over this snapshot
func (s *Snapshot) CommissionLedger() *commission.Ledger {
	return commission.NewLedger(s.DiagnosticInvoices.All(), s.CommissionPayments.All())
}

// ItemReferenced reports whether any invoice line, including returned
// invoices, points at the item
func (s *Snapshot) ItemReferenced(itemID uuid.UUID) bool {
	for _, p := range s.PurchaseInvoices.All() {
		if trade.ReferencesItem(p.Lines, itemID) {
			return true
		}
	}
	for _, inv := range s.SalesInvoices.All() {
		if trade.ReferencesItem(inv.Lines, itemID) {
			return true
		}
	}
	return false
}

// PostedBatches returns the ledger batches of every invoice whose stock
// effect is in force
func (s *Snapshot) PostedBatches() []inventory.Batch {
	batches := make([]inventory.Batch, 0, s.PurchaseInvoices.Len()+s.SalesInvoices.Len())
	for _, p := range s.PurchaseInvoices.All() {
		if p.Status.AffectsStock() {
			batches = append(batches, inventory.ApplyBatch(p.Direction(), p.Movements()))
		}
	}
	for _, inv := range s.SalesInvoices.All() {
		if inv.Status.AffectsStock() {
			batches = append(batches, inventory.ApplyBatch(inv.Direction(), inv.Movements()))
		}
	}
	return batches
}

// Reconcile reports items whose stock disagrees with the posted invoices
func (s *Snapshot) Reconcile() []inventory.Drift {
	return inventory.Reconcile(s.Items, s.PostedBatches())
}

package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/commission"
	"github.com/clinicrx/backend/internal/domain/finance"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SnapshotDocument is the stored form of a snapshot. Keys are camelCase and
// every collection keeps its in-memory order.
type SnapshotDocument struct {
	Revision           int64                     `json:"revision"`
	SavedAt            time.Time                 `json:"savedAt"`
	Items              []itemRecord              `json:"items"`
	PurchaseInvoices   []purchaseInvoiceRecord   `json:"purchaseInvoices"`
	SalesInvoices      []salesInvoiceRecord      `json:"salesInvoices"`
	Referrers          []referrerRecord          `json:"referrers"`
	CommissionPayments []commissionPaymentRecord `json:"commissionPayments"`
	DiagnosticInvoices []diagnosticInvoiceRecord `json:"diagnosticInvoices"`
}

type recordMeta struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func metaOf(e shared.BaseEntity) recordMeta {
	return recordMeta{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

func (m recordMeta) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

type itemRecord struct {
	recordMeta
	Version       int             `json:"version"`
	TradeName     string          `json:"tradeName"`
	GenericName   string          `json:"genericName,omitempty"`
	Formulation   string          `json:"formulation,omitempty"`
	Strength      string          `json:"strength,omitempty"`
	Stock         int64           `json:"stock"`
	UnitPriceBuy  decimal.Decimal `json:"unitPriceBuy"`
	UnitPriceSell decimal.Decimal `json:"unitPriceSell"`
	ExpiryDate    *time.Time      `json:"expiryDate,omitempty"`
}

type lineRecord struct {
	ItemID    uuid.UUID       `json:"itemId"`
	ItemName  string          `json:"itemName"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type settlementRecord struct {
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Discount    decimal.Decimal `json:"discount"`
	NetPayable  decimal.Decimal `json:"netPayable"`
	PaidAmount  decimal.Decimal `json:"paidAmount"`
	DueAmount   decimal.Decimal `json:"dueAmount"`
}

type invoiceHeader struct {
	recordMeta
	Version       int              `json:"version"`
	InvoiceNumber string           `json:"invoiceNumber"`
	Date          time.Time        `json:"date"`
	Status        string           `json:"status"`
	ReturnedAt    *time.Time       `json:"returnedAt,omitempty"`
	Lines         []lineRecord     `json:"lines"`
	Settlement    settlementRecord `json:"settlement"`
}

type purchaseInvoiceRecord struct {
	invoiceHeader
	SupplierName string `json:"supplierName"`
}

type customerRecord struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type salesInvoiceRecord struct {
	invoiceHeader
	Customer customerRecord `json:"customer"`
}

type referrerRecord struct {
	recordMeta
	Name string `json:"name"`
	Area string `json:"area,omitempty"`
}

type commissionPaymentRecord struct {
	recordMeta
	ReferrerID uuid.UUID       `json:"referrerId"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
}

type diagnosticInvoiceRecord struct {
	recordMeta
	Date        time.Time       `json:"date"`
	PatientName string          `json:"patientName,omitempty"`
	ReferrerID  *uuid.UUID      `json:"referrerId,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Commission  decimal.Decimal `json:"commission"`
}

// EncodeSnapshot renders snap as a JSON document
func EncodeSnapshot(snap *state.Snapshot) ([]byte, error) {
	return json.Marshal(NewSnapshotDocument(snap))
}

// DecodeSnapshot parses a document produced by EncodeSnapshot
func DecodeSnapshot(data []byte) (*state.Snapshot, error) {
	var doc SnapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot document: %w", err)
	}
	return doc.ToSnapshot()
}

// NewSnapshotDocument converts a snapshot to its stored form
func NewSnapshotDocument(snap *state.Snapshot) *SnapshotDocument {
	doc := &SnapshotDocument{
		Revision:           snap.Revision,
		SavedAt:            time.Now().UTC(),
		Items:              make([]itemRecord, 0, snap.Items.Len()),
		PurchaseInvoices:   make([]purchaseInvoiceRecord, 0, snap.PurchaseInvoices.Len()),
		SalesInvoices:      make([]salesInvoiceRecord, 0, snap.SalesInvoices.Len()),
		Referrers:          make([]referrerRecord, 0, snap.Referrers.Len()),
		CommissionPayments: make([]commissionPaymentRecord, 0, snap.CommissionPayments.Len()),
		DiagnosticInvoices: make([]diagnosticInvoiceRecord, 0, snap.DiagnosticInvoices.Len()),
	}

	for _, it := range snap.Items.List() {
		doc.Items = append(doc.Items, itemRecord{
			recordMeta:    metaOf(it.BaseEntity),
			Version:       it.Version,
			TradeName:     it.TradeName,
			GenericName:   it.GenericName,
			Formulation:   it.Formulation,
			Strength:      it.Strength,
			Stock:         it.Stock,
			UnitPriceBuy:  it.UnitPriceBuy,
			UnitPriceSell: it.UnitPriceSell,
			ExpiryDate:    it.ExpiryDate,
		})
	}
	for _, p := range snap.PurchaseInvoices.All() {
		doc.PurchaseInvoices = append(doc.PurchaseInvoices, purchaseInvoiceRecord{
			invoiceHeader: header(p.BaseAggregateRoot, p.InvoiceNumber, p.Date, p.Status, p.ReturnedAt, p.Lines, p.Settlement),
			SupplierName:  p.SupplierName,
		})
	}
	for _, s := range snap.SalesInvoices.All() {
		doc.SalesInvoices = append(doc.SalesInvoices, salesInvoiceRecord{
			invoiceHeader: header(s.BaseAggregateRoot, s.InvoiceNumber, s.Date, s.Status, s.ReturnedAt, s.Lines, s.Settlement),
			Customer: customerRecord{
				Name:    s.Customer.Name,
				Phone:   s.Customer.Phone,
				Address: s.Customer.Address,
			},
		})
	}
	for _, r := range snap.Referrers.All() {
		doc.Referrers = append(doc.Referrers, referrerRecord{
			recordMeta: metaOf(r.BaseEntity),
			Name:       r.Name,
			Area:       r.Area,
		})
	}
	for _, p := range snap.CommissionPayments.All() {
		doc.CommissionPayments = append(doc.CommissionPayments, commissionPaymentRecord{
			recordMeta: metaOf(p.BaseEntity),
			ReferrerID: p.ReferrerID,
			Amount:     p.Amount,
			Date:       p.Date,
			Method:     string(p.Method),
			Note:       p.Note,
		})
	}
	for _, d := range snap.DiagnosticInvoices.All() {
		doc.DiagnosticInvoices = append(doc.DiagnosticInvoices, diagnosticInvoiceRecord{
			recordMeta:  metaOf(d.BaseEntity),
			Date:        d.Date,
			PatientName: d.PatientName,
			ReferrerID:  d.ReferrerID,
			TotalAmount: d.TotalAmount,
			Commission:  d.Commission,
		})
	}
	return doc
}

func header(root shared.BaseAggregateRoot, number string, date time.Time, status trade.InvoiceStatus,
	returnedAt *time.Time, lines []trade.LineItem, s finance.Settlement) invoiceHeader {
	h := invoiceHeader{
		recordMeta:    metaOf(root.BaseEntity),
		Version:       root.Version,
		InvoiceNumber: number,
		Date:          date,
		Status:        status.String(),
		ReturnedAt:    returnedAt,
		Lines:         make([]lineRecord, 0, len(lines)),
		Settlement: settlementRecord{
			TotalAmount: s.TotalAmount,
			Discount:    s.Discount,
			NetPayable:  s.NetPayable,
			PaidAmount:  s.PaidAmount,
			DueAmount:   s.DueAmount,
		},
	}
	for _, l := range lines {
		h.Lines = append(h.Lines, lineRecord(l))
	}
	return h
}

func (h invoiceHeader) restore(kind string) (shared.BaseAggregateRoot, trade.InvoiceStatus, []trade.LineItem, finance.Settlement, error) {
	status := trade.InvoiceStatus(h.Status)
	if !status.IsValid() || status == trade.InvoiceStatusDraft {
		return shared.BaseAggregateRoot{}, "", nil, finance.Settlement{},
			fmt.Errorf("%s invoice %s: unexpected status %q", kind, h.ID, h.Status)
	}
	if h.ID == uuid.Nil {
		return shared.BaseAggregateRoot{}, "", nil, finance.Settlement{}, fmt.Errorf("%s invoice without id", kind)
	}
	lines := make([]trade.LineItem, 0, len(h.Lines))
	for _, l := range h.Lines {
		lines = append(lines, trade.LineItem(l))
	}
	root := shared.BaseAggregateRoot{BaseEntity: h.entity(), Version: h.Version}
	settlement := finance.Settlement{
		TotalAmount: h.Settlement.TotalAmount,
		Discount:    h.Settlement.Discount,
		NetPayable:  h.Settlement.NetPayable,
		PaidAmount:  h.Settlement.PaidAmount,
		DueAmount:   h.Settlement.DueAmount,
	}
	return root, status, lines, settlement, nil
}

// ToSnapshot rebuilds domain state. Records are restored as stored; no
// domain events are raised.
func (doc *SnapshotDocument) ToSnapshot() (*state.Snapshot, error) {
	snap := state.NewSnapshot()
	snap.Revision = doc.Revision

	for _, r := range doc.Items {
		if r.ID == uuid.Nil {
			return nil, fmt.Errorf("item %q without id", r.TradeName)
		}
		snap.Items.Restore(&catalog.Item{
			BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: r.entity(), Version: r.Version},
			TradeName:         r.TradeName,
			GenericName:       r.GenericName,
			Formulation:       r.Formulation,
			Strength:          r.Strength,
			Stock:             r.Stock,
			UnitPriceBuy:      r.UnitPriceBuy,
			UnitPriceSell:     r.UnitPriceSell,
			ExpiryDate:        r.ExpiryDate,
		})
	}
	for _, r := range doc.PurchaseInvoices {
		root, status, lines, settlement, err := r.restore("purchase")
		if err != nil {
			return nil, err
		}
		snap.PurchaseInvoices.Put(&trade.PurchaseInvoice{
			BaseAggregateRoot: root,
			InvoiceNumber:     r.InvoiceNumber,
			Date:              r.Date,
			SupplierName:      r.SupplierName,
			Lines:             lines,
			Settlement:        settlement,
			Status:            status,
			ReturnedAt:        r.ReturnedAt,
		})
	}
	for _, r := range doc.SalesInvoices {
		root, status, lines, settlement, err := r.restore("sales")
		if err != nil {
			return nil, err
		}
		snap.SalesInvoices.Put(&trade.SalesInvoice{
			BaseAggregateRoot: root,
			InvoiceNumber:     r.InvoiceNumber,
			Date:              r.Date,
			Customer: trade.Customer{
				Name:    r.Customer.Name,
				Phone:   r.Customer.Phone,
				Address: r.Customer.Address,
			},
			Lines:      lines,
			Settlement: settlement,
			Status:     status,
			ReturnedAt: r.ReturnedAt,
		})
	}
	for _, r := range doc.Referrers {
		snap.Referrers.Put(&commission.Referrer{BaseEntity: r.entity(), Name: r.Name, Area: r.Area})
	}
	for _, r := range doc.CommissionPayments {
		method := commission.PaymentMethod(r.Method)
		if !method.IsValid() {
			return nil, fmt.Errorf("commission payment %s: unknown method %q", r.ID, r.Method)
		}
		snap.CommissionPayments.Put(&commission.CommissionPayment{
			BaseEntity: r.entity(),
			ReferrerID: r.ReferrerID,
			Amount:     r.Amount,
			Date:       r.Date,
			Method:     method,
			Note:       r.Note,
		})
	}
	for _, r := range doc.DiagnosticInvoices {
		snap.DiagnosticInvoices.Put(&commission.DiagnosticInvoice{
			BaseEntity:  r.entity(),
			Date:        r.Date,
			PatientName: r.PatientName,
			ReferrerID:  r.ReferrerID,
			TotalAmount: r.TotalAmount,
			Commission:  r.Commission,
		})
	}
	return snap, nil
}

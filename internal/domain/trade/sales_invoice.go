package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/finance"
	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Customer identifies the buyer of an outdoor sale. Walk-in sales may leave it blank.
type Customer struct {
	Name    string
	Phone   string
	Address string
}

// DisplayName returns the name used for due grouping
func (c Customer) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "Walk-in"
}

// SalesInvoice is an outdoor sale. It mirrors PurchaseInvoice with inverted stock polarity.
type SalesInvoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string
	Date          time.Time
	Customer      Customer
	Lines         []LineItem
	finance.Settlement
	Status     InvoiceStatus
	ReturnedAt *time.Time
}

// NewSalesInvoice builds a posted sale. Availability is enforced by the ledger
// when the caller applies Movements.
func NewSalesInvoice(customer Customer, date time.Time, lines []LineItem, discount, paid decimal.Decimal) (*SalesInvoice, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	inv := &SalesInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Date:              normalizeDate(date),
		Customer:          normalizeCustomer(customer),
		Lines:             copyLines(lines),
		Status:            InvoiceStatusDraft,
	}
	inv.InvoiceNumber = invoiceNumber("SAL", inv.ID)

	settlement, err := finance.NewSettlement(sumLines(inv.Lines), discount, paid)
	if err != nil {
		return nil, withInvoiceID(err, inv.ID)
	}
	inv.Settlement = settlement

	if err := inv.transition(InvoiceStatusPosted); err != nil {
		return nil, err
	}

	inv.AddDomainEvent(NewSalesInvoicePostedEvent(inv))
	return inv, nil
}

// Direction is always sale
func (s *SalesInvoice) Direction() inventory.Direction {
	return inventory.DirectionSale
}

// Movements returns the lines currently applied to the ledger
func (s *SalesInvoice) Movements() []inventory.Movement {
	return Movements(s.Lines)
}

// Revise replaces lines, discount and paid amount. Id, date and creation time are preserved.
func (s *SalesInvoice) Revise(lines []LineItem, discount, paid decimal.Decimal) error {
	if err := s.transitionCheck(s.Status); err != nil {
		return err
	}
	if err := validateLines(lines); err != nil {
		return err
	}

	settlement, err := finance.NewSettlement(sumLines(lines), discount, paid)
	if err != nil {
		return withInvoiceID(err, s.ID)
	}

	previous := s.Lines
	s.Lines = copyLines(lines)
	s.Settlement = settlement
	s.IncrementVersion()

	s.AddDomainEvent(NewSalesInvoiceEditedEvent(s, previous))
	return nil
}

// UpdateCustomer changes the customer identity fields
func (s *SalesInvoice) UpdateCustomer(customer Customer) {
	s.Customer = normalizeCustomer(customer)
}

// RecordPayment applies a partial payment against the customer due
func (s *SalesInvoice) RecordPayment(amount decimal.Decimal) error {
	if !s.Status.CarriesDue() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot record payment on invoice in %s status", s.Status))
	}

	settlement, err := s.Settlement.ApplyPayment(amount)
	if err != nil {
		return withInvoiceID(err, s.ID)
	}
	s.Settlement = settlement
	s.IncrementVersion()

	s.AddDomainEvent(NewPaymentRecordedEvent(AggregateTypeSalesInvoice, s.ID, amount, s.Settlement))
	return nil
}

// MarkReturned flags the invoice terminal. The caller reverses Movements first.
func (s *SalesInvoice) MarkReturned() error {
	if err := s.transition(InvoiceStatusReturned); err != nil {
		return err
	}
	now := time.Now()
	s.ReturnedAt = &now
	s.IncrementVersion()

	s.AddDomainEvent(NewSalesInvoiceReturnedEvent(s))
	return nil
}

// Clone returns an independent copy without pending events
func (s *SalesInvoice) Clone() *SalesInvoice {
	c := *s
	c.BaseAggregateRoot = s.CloneRoot()
	c.Lines = copyLines(s.Lines)
	if s.ReturnedAt != nil {
		t := *s.ReturnedAt
		c.ReturnedAt = &t
	}
	return &c
}

func (s *SalesInvoice) transition(target InvoiceStatus) error {
	if err := s.transitionCheck(target); err != nil {
		return err
	}
	s.Status = target
	return nil
}

func (s *SalesInvoice) transitionCheck(target InvoiceStatus) error {
	if target == InvoiceStatusInitial || !s.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move sales invoice from %s to %s", s.Status, target))
	}
	return nil
}

func normalizeCustomer(c Customer) Customer {
	return Customer{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
}

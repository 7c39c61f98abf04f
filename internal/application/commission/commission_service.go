package commission

import (
	"context"

	appevent "github.com/clinicrx/backend/internal/application/event"
	"github.com/clinicrx/backend/internal/domain/commission"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/clinicrx/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommissionService keeps the referrer commission ledger. Balances are always
// recomputed from diagnostic invoices and payments; nothing is cached.
type CommissionService struct {
	scope           state.TransactionScope
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(scope state.TransactionScope) *CommissionService {
	return &CommissionService{scope: scope}
}

// SetEventPublisher sets the event publisher for the service
func (s *CommissionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *CommissionService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateReferrer registers a referrer
func (s *CommissionService) CreateReferrer(ctx context.Context, req CreateReferrerRequest) (*ReferrerResponse, error) {
	events := appevent.NewBuffer()
	var response ReferrerResponse

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		r, err := commission.NewReferrer(req.Name, req.Area)
		if err != nil {
			return err
		}
		snap.Referrers.Put(r)

		events.Add(commission.NewReferrerCreatedEvent(r))
		response = ToReferrerResponse(r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	return &response, nil
}

// ListReferrers returns referrers in registration order
func (s *CommissionService) ListReferrers(ctx context.Context) ([]ReferrerResponse, error) {
	var responses []ReferrerResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		all := snap.Referrers.All()
		responses = make([]ReferrerResponse, len(all))
		for i, r := range all {
			responses[i] = ToReferrerResponse(r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// RecordDiagnosticInvoice logs a diagnostic bill. Its commission joins the
// referrer's generated total immediately.
func (s *CommissionService) RecordDiagnosticInvoice(ctx context.Context, req RecordDiagnosticInvoiceRequest) (*DiagnosticInvoiceResponse, error) {
	events := appevent.NewBuffer()
	var response DiagnosticInvoiceResponse

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		if req.ReferrerID != nil && !snap.Referrers.Has(*req.ReferrerID) {
			return shared.NewValidationError(shared.CodeValidationFailed, "referrer_id", "referrer "+req.ReferrerID.String()+" does not exist")
		}

		inv, err := commission.NewDiagnosticInvoice(req.PatientName, req.ReferrerID, req.TotalAmount, req.Commission, req.Date)
		if err != nil {
			return err
		}
		snap.DiagnosticInvoices.Put(inv)

		events.Add(commission.NewDiagnosticInvoiceRecordedEvent(inv))
		response = ToDiagnosticInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "commission.diagnostic_invoice", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	return &response, nil
}

// RecordPayment records a payout. Payouts are not capped by the balance:
// an overpaid referrer simply shows a negative balance.
func (s *CommissionService) RecordPayment(ctx context.Context, req RecordCommissionPaymentRequest) (*PaymentResult, error) {
	events := appevent.NewBuffer()
	var result PaymentResult

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		r, ok := snap.Referrers.Get(req.ReferrerID)
		if !ok {
			return shared.ErrNotFound
		}
		method, err := commission.ParsePaymentMethod(req.Method)
		if err != nil {
			return err
		}
		p, err := commission.NewCommissionPayment(r.ID, req.Amount, method, req.Date, req.Note)
		if err != nil {
			return err
		}
		snap.CommissionPayments.Put(p)

		st := snap.CommissionLedger().Statement(r)
		events.Add(commission.NewCommissionPaymentRecordedEvent(p, st.Balance))
		result = PaymentResult{
			Payment: ToCommissionPaymentResponse(p),
			Balance: toBalanceResponse(st),
		}
		return nil
	})
	if err != nil {
		s.businessMetrics.RecordRejection(ctx, "commission.payment", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	if result.Balance.Overpaid {
		logger.L(ctx).Warn("referrer overpaid",
			zap.String("referrer_id", req.ReferrerID.String()),
			zap.String("balance", result.Balance.Balance.String()),
		)
	}
	return &result, nil
}

// GetBalance returns generated minus paid for one referrer
func (s *CommissionService) GetBalance(ctx context.Context, referrerID uuid.UUID) (*BalanceResponse, error) {
	var response BalanceResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		r, ok := snap.Referrers.Get(referrerID)
		if !ok {
			return shared.ErrNotFound
		}
		response = toBalanceResponse(snap.CommissionLedger().Summary([]*commission.Referrer{r})[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetStatement returns a referrer's balance with every invoice and payment behind it
func (s *CommissionService) GetStatement(ctx context.Context, referrerID uuid.UUID) (*StatementResponse, error) {
	var response StatementResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		r, ok := snap.Referrers.Get(referrerID)
		if !ok {
			return shared.ErrNotFound
		}
		response = toStatementResponse(snap.CommissionLedger().Statement(r))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// GetSummary returns every referrer's balance
func (s *CommissionService) GetSummary(ctx context.Context) ([]BalanceResponse, error) {
	var responses []BalanceResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		statements := snap.CommissionLedger().Summary(snap.Referrers.All())
		responses = make([]BalanceResponse, len(statements))
		for i, st := range statements {
			responses[i] = toBalanceResponse(st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

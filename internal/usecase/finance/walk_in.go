package finance

import (
	"context"
	"strings"

	"github.com/BruksfildServices01/barber-agenda/internal/audit"
	"github.com/BruksfildServices01/barber-agenda/internal/auth"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/models"
	"github.com/BruksfildServices01/barber-agenda/internal/timeofday"
	"github.com/BruksfildServices01/barber-agenda/internal/timezone"
)

type AuditDispatcher interface {
	Dispatch(ev audit.Event)
}

type WalkInPaymentInput struct {
	Amount float64
	Method string
	Notes  string
}

// RecordWalkInPayment registers a sale with no appointment behind it.
type RecordWalkInPayment struct {
	repo  Repository
	audit AuditDispatcher
	clock timezone.Clock
}

func NewRecordWalkInPayment(repo Repository, audit AuditDispatcher, clock timezone.Clock) *RecordWalkInPayment {
	return &RecordWalkInPayment{repo: repo, audit: audit, clock: clock}
}

func (uc *RecordWalkInPayment) Execute(ctx context.Context, in WalkInPaymentInput) (*models.Payment, error) {
	id, err := auth.Require(ctx)
	if err != nil {
		return nil, err
	}
	if in.Amount <= 0 {
		return nil, httperr.ErrValidation("invalid_amount")
	}
	if !models.IsPaymentMethod(in.Method) {
		return nil, httperr.ErrValidation("invalid_payment_method")
	}

	p := &models.Payment{
		Amount: in.Amount,
		Method: in.Method,
		PaidOn: timeofday.DateOf(uc.clock.Now()),
		Notes:  strings.TrimSpace(in.Notes),
	}
	if err := uc.repo.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &id.UserID,
		Source:   audit.SourceOperator,
		Action:   "walk_in_payment",
		Entity:   "payment",
		EntityID: &p.ID,
		Metadata: map[string]any{"amount": p.Amount, "method": p.Method},
	})
	return p, nil
}

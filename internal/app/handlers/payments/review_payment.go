package payments

import (
	"context"
	"fmt"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	domainpayments "petstay/internal/domain/payments"
	"petstay/internal/domain/shared/money"
)

const (
	confirmPaymentKey = "payment.confirm"
	rejectPaymentKey  = "payment.reject"
	manualPaymentKey  = "payment.manual"
	annotateKey       = "payment.annotate"
)

// ConfirmPaymentCommand completes a pending payment and advances the booking
// when the covered amount crosses its confirmation threshold.
type ConfirmPaymentCommand struct {
	PaymentID string
	AdminID   string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

type ConfirmPaymentResult struct {
	BookingStatus string `json:"booking_status"`
	Paid          int64  `json:"paid"`
	Remaining     int64  `json:"remaining"`
}

type ConfirmPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, err := h.execute(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *ConfirmPaymentHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	p, err := unit.Payments().ByID(ctx, domainpayments.PaymentID(cmd.PaymentID))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := p.Confirm(cmd.AdminID, now); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}

	b, err := unit.Bookings().ByID(ctx, p.BookingID)
	if err != nil {
		return nil, err
	}
	paid, err := support.PaidFor(ctx, unit, b)
	if err != nil {
		return nil, err
	}
	if b.AdvancePaid(paid, now) {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, p, b); err != nil {
		return nil, err
	}

	remaining, err := domainpayments.Remaining(b.Pricing.Total, paid)
	if err != nil {
		return nil, err
	}
	return &ConfirmPaymentResult{
		BookingStatus: string(b.Status),
		Paid:          paid.Amount,
		Remaining:     remaining.Amount,
	}, nil
}

// RejectPaymentCommand fails a pending payment with a reviewer comment.
type RejectPaymentCommand struct {
	PaymentID string
	AdminID   string
	Reason    string
}

func (c RejectPaymentCommand) Key() string { return rejectPaymentKey }

type RejectPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RejectPaymentHandler) Handle(ctx context.Context, cmd RejectPaymentCommand) (struct{}, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, finish(func() error {
		p, err := unit.Payments().ByID(ctx, domainpayments.PaymentID(cmd.PaymentID))
		if err != nil {
			return err
		}
		if err := p.Reject(cmd.AdminID, cmd.Reason, time.Now()); err != nil {
			return err
		}
		if err := unit.Payments().Save(ctx, p); err != nil {
			return err
		}
		return support.DrainEvents(ctx, h.Outbox, h.Encoder, p)
	}())
}

// RecordManualPaymentCommand records money taken outside the system, cash at
// the desk being the usual case. It is confirmed immediately.
type RecordManualPaymentCommand struct {
	PaymentID string
	BookingID string
	Amount    int64
	Currency  string
	Method    string
	Type      string
	AdminID   string
	Comment   string
}

func (c RecordManualPaymentCommand) Key() string { return manualPaymentKey }

type RecordManualPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RecordManualPaymentHandler) Handle(ctx context.Context, cmd RecordManualPaymentCommand) (*ConfirmPaymentResult, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, err := h.execute(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *RecordManualPaymentHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd RecordManualPaymentCommand) (*ConfirmPaymentResult, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	amount, err := money.New(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	if amount.Currency != b.Pricing.Total.Currency {
		return nil, fmt.Errorf("payments: booking %s is priced in %s: %w",
			b.ID, b.Pricing.Total.Currency, money.ErrCurrencyMismatch)
	}
	now := time.Now()
	p, err := domainpayments.NewManual(
		domainpayments.PaymentID(cmd.PaymentID),
		b.ID,
		amount,
		domainpayments.Method(cmd.Method),
		domainpayments.Type(cmd.Type),
		cmd.AdminID,
		now,
	)
	if err != nil {
		return nil, err
	}
	if cmd.Comment != "" {
		p.Annotate(cmd.Comment, now)
	}
	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}

	paid, err := support.PaidFor(ctx, unit, b)
	if err != nil {
		return nil, err
	}
	if b.AdvancePaid(paid, now) {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, p, b); err != nil {
		return nil, err
	}

	remaining, err := domainpayments.Remaining(b.Pricing.Total, paid)
	if err != nil {
		return nil, err
	}
	return &ConfirmPaymentResult{BookingStatus: string(b.Status), Paid: paid.Amount, Remaining: remaining.Amount}, nil
}

// AnnotatePaymentCommand updates the reviewer comment on any payment.
type AnnotatePaymentCommand struct {
	PaymentID string
	Comment   string
}

func (c AnnotatePaymentCommand) Key() string { return annotateKey }

type AnnotatePaymentHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AnnotatePaymentHandler) Handle(ctx context.Context, cmd AnnotatePaymentCommand) (struct{}, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, finish(func() error {
		p, err := unit.Payments().ByID(ctx, domainpayments.PaymentID(cmd.PaymentID))
		if err != nil {
			return err
		}
		p.Annotate(cmd.Comment, time.Now())
		return unit.Payments().Save(ctx, p)
	}())
}

var _ commands.Handler[ConfirmPaymentCommand, *ConfirmPaymentResult] = (*ConfirmPaymentHandler)(nil)
var _ commands.Handler[RejectPaymentCommand, struct{}] = (*RejectPaymentHandler)(nil)
var _ commands.Handler[RecordManualPaymentCommand, *ConfirmPaymentResult] = (*RecordManualPaymentHandler)(nil)
var _ commands.Handler[AnnotatePaymentCommand, struct{}] = (*AnnotatePaymentHandler)(nil)

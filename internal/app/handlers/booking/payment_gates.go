package booking

import (
	"context"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/shared/money"
)

const (
	requireApprovalKey  = "booking.require_approval"
	approvePaymentKey   = "booking.approve_payment"
	cancelPrepaymentKey = "booking.cancel_prepayment"
)

// RequireApprovalCommand parks a fresh booking until an administrator signs
// off its payment conditions.
type RequireApprovalCommand struct {
	BookingID string
}

func (c RequireApprovalCommand) Key() string { return requireApprovalKey }

type RequireApprovalHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequireApprovalHandler) Handle(ctx context.Context, cmd RequireApprovalCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			return b.RequireApproval(time.Now())
		})
	return struct{}{}, err
}

// ApprovePaymentCommand opens the booking for payment, optionally fixing a
// required prepayment amount in minor units.
type ApprovePaymentCommand struct {
	BookingID          string
	RequiredPrepayment int64
	Currency           string
}

func (c ApprovePaymentCommand) Key() string { return approvePaymentKey }

type ApprovePaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ApprovePaymentHandler) Handle(ctx context.Context, cmd ApprovePaymentCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			required := money.Zero(b.Pricing.Total.Currency)
			if cmd.RequiredPrepayment > 0 {
				currency := cmd.Currency
				if currency == "" {
					currency = b.Pricing.Total.Currency
				}
				var err error
				required, err = money.New(cmd.RequiredPrepayment, currency)
				if err != nil {
					return err
				}
			}
			return b.ApprovePayment(required, time.Now())
		})
	return struct{}{}, err
}

// CancelPrepaymentCommand waives the prepayment requirement; from then on
// only the full total confirms the booking through payments.
type CancelPrepaymentCommand struct {
	BookingID string
}

func (c CancelPrepaymentCommand) Key() string { return cancelPrepaymentKey }

type CancelPrepaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelPrepaymentHandler) Handle(ctx context.Context, cmd CancelPrepaymentCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			return b.CancelPrepayment(time.Now())
		})
	return struct{}{}, err
}

var _ commands.Handler[RequireApprovalCommand, struct{}] = (*RequireApprovalHandler)(nil)
var _ commands.Handler[ApprovePaymentCommand, struct{}] = (*ApprovePaymentHandler)(nil)
var _ commands.Handler[CancelPrepaymentCommand, struct{}] = (*CancelPrepaymentHandler)(nil)

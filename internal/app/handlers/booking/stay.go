package booking

import (
	"context"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/payments"
)

const (
	checkInKey  = "booking.check_in"
	checkOutKey = "booking.check_out"
)

// CheckInCommand marks the guest's arrival.
type CheckInCommand struct {
	BookingID string
}

func (c CheckInCommand) Key() string { return checkInKey }

type CheckInHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CheckInHandler) Handle(ctx context.Context, cmd CheckInCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			return b.MarkCheckedIn(time.Now())
		})
	return struct{}{}, err
}

// CheckOutCommand closes the stay at the actual departure date. An early
// departure is settled first: the result carries the per-unit split so the
// administrator can issue the refund or convert the credit as a follow-up.
type CheckOutCommand struct {
	BookingID      string
	ActualCheckOut time.Time
}

func (c CheckOutCommand) Key() string { return checkOutKey }

type CheckOutResult struct {
	Early         bool  `json:"early"`
	UnitsStayed   int   `json:"units_stayed,omitempty"`
	UnitsUnused   int   `json:"units_unused,omitempty"`
	AmountForStay int64 `json:"amount_for_stay,omitempty"`
	Refund        int64 `json:"refund,omitempty"`
	AmountOwed    int64 `json:"amount_owed,omitempty"`
	Remaining     int64 `json:"remaining"`
}

type CheckOutHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CheckOutHandler) Handle(ctx context.Context, cmd CheckOutCommand) (*CheckOutResult, error) {
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

func (h *CheckOutHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd CheckOutCommand) (*CheckOutResult, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return nil, err
	}
	paid, err := support.PaidFor(ctx, unit, b)
	if err != nil {
		return nil, err
	}

	res := &CheckOutResult{}
	actualDay := calendar.Day(cmd.ActualCheckOut)
	if actualDay.Before(calendar.Day(b.CheckOut)) {
		quote, err := payments.QuoteEarlyCheckout(b, paid, actualDay, mode)
		if err != nil {
			return nil, err
		}
		res.Early = true
		res.UnitsStayed = quote.UnitsStayed
		res.UnitsUnused = quote.UnitsUnused
		res.AmountForStay = quote.AmountForStay.Amount
		res.Refund = quote.Refund.Amount
		res.AmountOwed = quote.AmountOwed.Amount
	}

	if err := b.MarkCheckedOut(actualDay, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	remaining, err := payments.Remaining(b.Pricing.Total, paid)
	if err != nil {
		return nil, err
	}
	res.Remaining = remaining.Amount
	return res, nil
}

var _ commands.Handler[CheckInCommand, struct{}] = (*CheckInHandler)(nil)
var _ commands.Handler[CheckOutCommand, *CheckOutResult] = (*CheckOutHandler)(nil)

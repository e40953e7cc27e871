package support

import (
	"context"

	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/payments"
	"petstay/internal/domain/settings"
	"petstay/internal/domain/shared/events"
	"petstay/internal/domain/shared/money"
)

// EventSource is anything that accumulated domain events, i.e. an aggregate
// embedding the shared recorder.
type EventSource interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

// DrainEvents moves pending domain events from the aggregates into the
// transactional outbox.
func DrainEvents(ctx context.Context, box outbox.Outbox, enc outbox.EventEncoder, sources ...EventSource) error {
	if box == nil {
		for _, src := range sources {
			src.ClearEvents()
		}
		return nil
	}
	if enc == nil {
		enc = outbox.JSONEventEncoder{}
	}
	for _, src := range sources {
		pending := src.PendingEvents()
		src.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, box, enc, pending); err != nil {
			return err
		}
	}
	return nil
}

// CurrentMode reads the facility-wide calculation mode, creating the default
// settings record on first use.
func CurrentMode(ctx context.Context, unit uow.UnitOfWork) (calendar.Mode, error) {
	svc := settings.NewService(unit.Settings(), unit.Bookings())
	current, err := svc.Current(ctx)
	if err != nil {
		return "", err
	}
	return current.Mode, nil
}

// PaidFor folds the booking's confirmed payments. For a composite parent the
// fold spans the parent's own payments and every segment's, so that paying
// any segment moves the whole composite toward settled.
func PaidFor(ctx context.Context, unit uow.UnitOfWork, b *booking.Booking) (money.Money, error) {
	own, err := unit.Payments().ByBooking(ctx, b.ID)
	if err != nil {
		return money.Money{}, err
	}
	sets := [][]*payments.Payment{own}
	if b.Kind == booking.KindCompositeParent {
		for _, segID := range b.SegmentIDs {
			segPayments, err := unit.Payments().ByBooking(ctx, segID)
			if err != nil {
				return money.Money{}, err
			}
			sets = append(sets, segPayments)
		}
	}
	return payments.PaidAmount(b.Pricing.Total.Currency, sets...)
}

// RemainingFor is the booking's total minus PaidFor; negative means overpaid.
func RemainingFor(ctx context.Context, unit uow.UnitOfWork, b *booking.Booking) (money.Money, error) {
	paid, err := PaidFor(ctx, unit, b)
	if err != nil {
		return money.Money{}, err
	}
	return payments.Remaining(b.Pricing.Total, paid)
}

package booking

import (
	"context"

	"petstay/internal/app/handlers/support"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
)

// mutate loads one booking, applies fn inside a unit of work, saves it and
// drains its events. The shape of most administrative booking commands.
func mutate(ctx context.Context, factory uow.UoWFactory, box outbox.Outbox, enc outbox.EventEncoder, id domainbooking.BookingID, fn func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error) error {
	unit, ctx, finish, err := support.BeginUnit(ctx, factory)
	if err != nil {
		return err
	}
	return finish(func() error {
		b, err := unit.Bookings().ByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, unit, b); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return support.DrainEvents(ctx, box, enc, b)
	}())
}

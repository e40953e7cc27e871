package booking

import (
	"context"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
)

const (
	cancelBookingKey = "booking.cancel"
	deleteBookingKey = "booking.delete"
)

// CancelBookingCommand releases the booking; its room frees implicitly for
// overlap queries. Money already taken stays until a refund is requested.
type CancelBookingCommand struct {
	BookingID string
	Reason    string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			return b.Cancel(cmd.Reason, time.Now())
		})
	return struct{}{}, err
}

// DeleteBookingCommand removes the record entirely, cascading over segments
// and payment history. Deleting a composite parent takes its children along.
type DeleteBookingCommand struct {
	BookingID string
}

func (c DeleteBookingCommand) Key() string { return deleteBookingKey }

type DeleteBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteBookingHandler) Handle(ctx context.Context, cmd DeleteBookingCommand) (struct{}, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, finish(h.execute(ctx, unit, domainbooking.BookingID(cmd.BookingID)))
}

func (h *DeleteBookingHandler) execute(ctx context.Context, unit uow.UnitOfWork, id domainbooking.BookingID) error {
	b, err := unit.Bookings().ByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Kind == domainbooking.KindCompositeParent {
		children, err := unit.Bookings().Children(ctx, b.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := h.remove(ctx, unit, child.ID); err != nil {
				return err
			}
		}
	}
	return h.remove(ctx, unit, b.ID)
}

func (h *DeleteBookingHandler) remove(ctx context.Context, unit uow.UnitOfWork, id domainbooking.BookingID) error {
	if err := unit.Payments().DeleteByBooking(ctx, id); err != nil {
		return err
	}
	return unit.Bookings().Delete(ctx, id)
}

var _ commands.Handler[CancelBookingCommand, struct{}] = (*CancelBookingHandler)(nil)
var _ commands.Handler[DeleteBookingCommand, struct{}] = (*DeleteBookingHandler)(nil)

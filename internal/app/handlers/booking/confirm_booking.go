package booking

import (
	"context"
	"errors"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	"petstay/internal/domain/availability"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/rooms"
)

const (
	confirmBookingKey = "booking.confirm"
	assignRoomKey     = "booking.assign_room"
)

var ErrRoomUnavailable = errors.New("booking: room is occupied for the requested range")

// ConfirmBookingCommand confirms a booking by administrative decision,
// optionally placing it into a concrete room in the same step.
type ConfirmBookingCommand struct {
	BookingID string
	RoomID    string
}

func (c ConfirmBookingCommand) Key() string { return confirmBookingKey }

type ConfirmBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ConfirmBookingHandler) Handle(ctx context.Context, cmd ConfirmBookingCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			now := time.Now()
			if cmd.RoomID != "" {
				if err := placeInRoom(ctx, unit, b, rooms.RoomID(cmd.RoomID), now); err != nil {
					return err
				}
			}
			return b.Confirm(now)
		})
	return struct{}{}, err
}

// AssignRoomCommand moves the booking into a room without touching its
// status, the usual flow when housekeeping settles the floor plan later.
type AssignRoomCommand struct {
	BookingID string
	RoomID    string
}

func (c AssignRoomCommand) Key() string { return assignRoomKey }

type AssignRoomHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *AssignRoomHandler) Handle(ctx context.Context, cmd AssignRoomCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			return placeInRoom(ctx, unit, b, rooms.RoomID(cmd.RoomID), time.Now())
		})
	return struct{}{}, err
}

// placeInRoom checks the room is free for the booking's range, excluding the
// booking itself so a re-assignment never collides with its own dates.
func placeInRoom(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, roomID rooms.RoomID, now time.Time) error {
	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return err
	}
	room, err := unit.Rooms().Room(ctx, roomID)
	if err != nil {
		return err
	}
	if room.RoomTypeID != b.RoomTypeID {
		return ErrRoomUnavailable
	}
	counter := availability.NewCounter(unit.Rooms(), unit.Bookings())
	free, err := counter.IsRoomAvailable(ctx, roomID, b.CheckIn, b.CheckOut, mode, b.ID)
	if err != nil {
		return err
	}
	if !free {
		return ErrRoomUnavailable
	}
	return b.AssignRoom(roomID, now)
}

var _ commands.Handler[ConfirmBookingCommand, struct{}] = (*ConfirmBookingHandler)(nil)
var _ commands.Handler[AssignRoomCommand, struct{}] = (*AssignRoomHandler)(nil)

package booking

import (
	"context"
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
	updateDatesKey        = "booking.update_dates"
	updateRoomAndDatesKey = "booking.update_room_and_dates"
)

// UpdateDatesCommand moves the stay to a new range and reprices it from the
// current room type rates.
type UpdateDatesCommand struct {
	BookingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (c UpdateDatesCommand) Key() string { return updateDatesKey }

type UpdateDatesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UpdateDatesHandler) Handle(ctx context.Context, cmd UpdateDatesCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			mode, err := support.CurrentMode(ctx, unit)
			if err != nil {
				return err
			}
			if b.RoomID != "" {
				counter := availability.NewCounter(unit.Rooms(), unit.Bookings())
				free, err := counter.IsRoomAvailable(ctx, b.RoomID, cmd.CheckIn, cmd.CheckOut, mode, b.ID)
				if err != nil {
					return err
				}
				if !free {
					return ErrRoomUnavailable
				}
			}
			roomType, err := unit.Rooms().RoomType(ctx, b.RoomTypeID)
			if err != nil {
				return err
			}
			return b.UpdateDates(cmd.CheckIn, cmd.CheckOut, mode, roomType, time.Now())
		})
	return struct{}{}, err
}

// UpdateRoomAndDatesCommand moves the stay and its room in one step. The new
// room is validated against the new range, not the old one.
type UpdateRoomAndDatesCommand struct {
	BookingID string
	RoomID    string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (c UpdateRoomAndDatesCommand) Key() string { return updateRoomAndDatesKey }

type UpdateRoomAndDatesHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *UpdateRoomAndDatesHandler) Handle(ctx context.Context, cmd UpdateRoomAndDatesCommand) (struct{}, error) {
	err := mutate(ctx, h.UoWFactory, h.Outbox, h.Encoder, domainbooking.BookingID(cmd.BookingID),
		func(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) error {
			mode, err := support.CurrentMode(ctx, unit)
			if err != nil {
				return err
			}
			roomType, err := unit.Rooms().RoomType(ctx, b.RoomTypeID)
			if err != nil {
				return err
			}
			now := time.Now()
			if err := b.UpdateDates(cmd.CheckIn, cmd.CheckOut, mode, roomType, now); err != nil {
				return err
			}
			return placeInRoom(ctx, unit, b, rooms.RoomID(cmd.RoomID), now)
		})
	return struct{}{}, err
}

var _ commands.Handler[UpdateDatesCommand, struct{}] = (*UpdateDatesHandler)(nil)
var _ commands.Handler[UpdateRoomAndDatesCommand, struct{}] = (*UpdateRoomAndDatesHandler)(nil)

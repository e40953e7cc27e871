package availability

import (
	"context"
	"time"

	"petstay/internal/app/handlers/support"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	domainavailability "petstay/internal/domain/availability"
	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/rooms"
)

const (
	roomTypeAvailabilityKey = "availability.room_type"
	roomAvailabilityKey     = "availability.room"
)

// RoomTypeAvailabilityQuery counts free rooms of a type for a range, plus
// the unit count and its plural form for display.
type RoomTypeAvailabilityQuery struct {
	RoomTypeID string
	CheckIn    time.Time
	CheckOut   time.Time
}

func (q RoomTypeAvailabilityQuery) Key() string { return roomTypeAvailabilityKey }

type RoomTypeAvailabilityView struct {
	FreeRooms int    `json:"free_rooms"`
	Units     int    `json:"units"`
	UnitLabel string `json:"unit_label"`
}

type RoomTypeAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RoomTypeAvailabilityHandler) Handle(ctx context.Context, q RoomTypeAvailabilityQuery) (RoomTypeAvailabilityView, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return RoomTypeAvailabilityView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return RoomTypeAvailabilityView{}, err
	}
	counter := domainavailability.NewCounter(unit.Rooms(), unit.Bookings())
	free, err := counter.AvailableRoomCount(ctx, rooms.RoomTypeID(q.RoomTypeID), q.CheckIn, q.CheckOut, mode)
	if err != nil {
		return RoomTypeAvailabilityView{}, err
	}
	units, err := calendar.Units(q.CheckIn, q.CheckOut, mode)
	if err != nil {
		return RoomTypeAvailabilityView{}, err
	}
	return RoomTypeAvailabilityView{
		FreeRooms: free,
		Units:     units,
		UnitLabel: calendar.UnitLabel(mode, units),
	}, nil
}

// RoomAvailabilityQuery answers whether one room is free for a range,
// optionally ignoring a booking that is being rescheduled into it.
type RoomAvailabilityQuery struct {
	RoomID           string
	CheckIn          time.Time
	CheckOut         time.Time
	ExcludeBookingID string
}

func (q RoomAvailabilityQuery) Key() string { return roomAvailabilityKey }

type RoomAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *RoomAvailabilityHandler) Handle(ctx context.Context, q RoomAvailabilityQuery) (bool, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return false, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return false, err
	}
	counter := domainavailability.NewCounter(unit.Rooms(), unit.Bookings())
	return counter.IsRoomAvailable(ctx, rooms.RoomID(q.RoomID), q.CheckIn, q.CheckOut, mode, booking.BookingID(q.ExcludeBookingID))
}

var _ queries.Handler[RoomTypeAvailabilityQuery, RoomTypeAvailabilityView] = (*RoomTypeAvailabilityHandler)(nil)
var _ queries.Handler[RoomAvailabilityQuery, bool] = (*RoomAvailabilityHandler)(nil)

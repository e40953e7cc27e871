// Package availability answers capacity questions by counting, never by
// holding locks or slots: a room type's free capacity is its active room
// count minus the bookings overlapping the queried range.
package availability

import (
	"context"
	"time"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/rooms"
)

type Counter struct {
	rooms    rooms.Repository
	bookings booking.Repository
}

func NewCounter(roomRepo rooms.Repository, bookingRepo booking.Repository) *Counter {
	return &Counter{rooms: roomRepo, bookings: bookingRepo}
}

// AvailableRoomCount reports how many rooms of the type are free for the
// whole range. Composite parents never occupy capacity; their segments do.
// Overbooked data clamps to zero instead of going negative.
func (c *Counter) AvailableRoomCount(ctx context.Context, roomTypeID rooms.RoomTypeID, checkIn, checkOut time.Time, mode calendar.Mode) (int, error) {
	if _, err := calendar.Units(checkIn, checkOut, mode); err != nil {
		return 0, err
	}

	total, err := c.rooms.ActiveRoomCount(ctx, roomTypeID)
	if err != nil {
		return 0, err
	}
	candidates, err := c.bookings.OverlapCandidatesByRoomType(ctx, roomTypeID)
	if err != nil {
		return 0, err
	}

	occupied := 0
	for _, b := range candidates {
		if calendar.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut, mode) {
			occupied++
		}
	}

	free := total - occupied
	if free < 0 {
		free = 0
	}
	return free, nil
}

// IsRoomAvailable reports whether one specific room is free for the range.
// exclude skips a booking from the occupancy check, so that confirming or
// rescheduling a booking does not collide with itself.
func (c *Counter) IsRoomAvailable(ctx context.Context, roomID rooms.RoomID, checkIn, checkOut time.Time, mode calendar.Mode, exclude booking.BookingID) (bool, error) {
	if _, err := calendar.Units(checkIn, checkOut, mode); err != nil {
		return false, err
	}

	room, err := c.rooms.Room(ctx, roomID)
	if err != nil {
		return false, err
	}
	if !room.Active {
		return false, nil
	}

	candidates, err := c.bookings.OverlapCandidatesByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	for _, b := range candidates {
		if b.ID == exclude {
			continue
		}
		if calendar.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut, mode) {
			return false, nil
		}
	}
	return true, nil
}

package booking

import (
	"time"

	"petstay/internal/domain/clients"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID  BookingID
	ClientID   clients.ClientID
	RoomTypeID rooms.RoomTypeID
	CheckIn    time.Time
	CheckOut   time.Time
	Total      money.Money
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	RoomID    rooms.RoomID
	CheckIn   time.Time
	CheckOut  time.Time
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type GuestCheckedIn struct {
	BookingID BookingID
	RoomID    rooms.RoomID
	At        time.Time
}

func (e GuestCheckedIn) EventName() string     { return "booking.checked_in" }
func (e GuestCheckedIn) AggregateID() string   { return string(e.BookingID) }
func (e GuestCheckedIn) OccurredAt() time.Time { return e.At }

type GuestCheckedOut struct {
	BookingID BookingID
	RoomID    rooms.RoomID
	Early     bool
	At        time.Time
}

func (e GuestCheckedOut) EventName() string     { return "booking.checked_out" }
func (e GuestCheckedOut) AggregateID() string   { return string(e.BookingID) }
func (e GuestCheckedOut) OccurredAt() time.Time { return e.At }

type RoomAssigned struct {
	BookingID BookingID
	RoomID    rooms.RoomID
	At        time.Time
}

func (e RoomAssigned) EventName() string     { return "booking.room_assigned" }
func (e RoomAssigned) AggregateID() string   { return string(e.BookingID) }
func (e RoomAssigned) OccurredAt() time.Time { return e.At }

type DatesUpdated struct {
	BookingID BookingID
	CheckIn   time.Time
	CheckOut  time.Time
	At        time.Time
}

func (e DatesUpdated) EventName() string     { return "booking.dates_updated" }
func (e DatesUpdated) AggregateID() string   { return string(e.BookingID) }
func (e DatesUpdated) OccurredAt() time.Time { return e.At }

type BookingsMerged struct {
	ParentID   BookingID
	SegmentIDs []BookingID
	At         time.Time
}

func (e BookingsMerged) EventName() string     { return "booking.merged" }
func (e BookingsMerged) AggregateID() string   { return string(e.ParentID) }
func (e BookingsMerged) OccurredAt() time.Time { return e.At }

type OverpaymentConverted struct {
	BookingID BookingID
	Amount    money.Money
	At        time.Time
}

func (e OverpaymentConverted) EventName() string     { return "booking.overpayment_converted" }
func (e OverpaymentConverted) AggregateID() string   { return string(e.BookingID) }
func (e OverpaymentConverted) OccurredAt() time.Time { return e.At }

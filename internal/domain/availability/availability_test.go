package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petstay/internal/domain/availability"
	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/rooms"
)

type fakeRoomRepo struct {
	rooms map[rooms.RoomID]*rooms.Room
}

func (f *fakeRoomRepo) RoomType(ctx context.Context, id rooms.RoomTypeID) (*rooms.RoomType, error) {
	return nil, rooms.ErrRoomTypeNotFound
}

func (f *fakeRoomRepo) Room(ctx context.Context, id rooms.RoomID) (*rooms.Room, error) {
	r, ok := f.rooms[id]
	if !ok {
		return nil, rooms.ErrRoomNotFound
	}
	return r, nil
}

func (f *fakeRoomRepo) ActiveRooms(ctx context.Context, id rooms.RoomTypeID) ([]*rooms.Room, error) {
	var out []*rooms.Room
	for _, r := range f.rooms {
		if r.RoomTypeID == id && r.Active {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRoomRepo) ActiveRoomCount(ctx context.Context, id rooms.RoomTypeID) (int, error) {
	active, err := f.ActiveRooms(ctx, id)
	return len(active), err
}

func (f *fakeRoomRepo) SaveRoomType(ctx context.Context, rt *rooms.RoomType) error { return nil }
func (f *fakeRoomRepo) SaveRoom(ctx context.Context, r *rooms.Room) error          { return nil }

type fakeBookingRepo struct {
	bookings []*booking.Booking
}

func (f *fakeBookingRepo) ByID(ctx context.Context, id booking.BookingID) (*booking.Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (f *fakeBookingRepo) Save(ctx context.Context, b *booking.Booking) error   { return nil }
func (f *fakeBookingRepo) Delete(ctx context.Context, id booking.BookingID) error { return nil }

func (f *fakeBookingRepo) Children(ctx context.Context, parent booking.BookingID) ([]*booking.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ListByClient(ctx context.Context, client clients.ClientID) ([]*booking.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) OverlapCandidatesByRoomType(ctx context.Context, id rooms.RoomTypeID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range f.bookings {
		if b.RoomTypeID != id || b.Status == booking.StatusCancelled || b.Kind == booking.KindCompositeParent {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) OverlapCandidatesByRoom(ctx context.Context, id rooms.RoomID) ([]*booking.Booking, error) {
	var out []*booking.Booking
	for _, b := range f.bookings {
		if b.RoomID != id || b.Status == booking.StatusCancelled || b.Kind == booking.KindCompositeParent {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) HasActiveBookings(ctx context.Context) (bool, error) {
	return len(f.bookings) > 0, nil
}

func day(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func stay(id booking.BookingID, roomType rooms.RoomTypeID, room rooms.RoomID, in, out int, status booking.Status) *booking.Booking {
	return &booking.Booking{
		ID:         id,
		RoomTypeID: roomType,
		RoomID:     room,
		CheckIn:    day(in),
		CheckOut:   day(out),
		Status:     status,
		Kind:       booking.KindPlain,
	}
}

func threeRoomFixture() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: map[rooms.RoomID]*rooms.Room{
		"r-1": {ID: "r-1", RoomTypeID: "rt-1", Name: "1", Active: true},
		"r-2": {ID: "r-2", RoomTypeID: "rt-1", Name: "2", Active: true},
		"r-3": {ID: "r-3", RoomTypeID: "rt-1", Name: "3", Active: true},
	}}
}

func TestAvailableRoomCountSubtractsOverlaps(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: []*booking.Booking{
		stay("b-1", "rt-1", "r-1", 15, 18, booking.StatusConfirmed),
		stay("b-2", "rt-1", "r-2", 17, 20, booking.StatusCheckedIn),
	}}
	counter := availability.NewCounter(threeRoomFixture(), bookings)

	free, err := counter.AvailableRoomCount(context.Background(), "rt-1", day(16), day(18), calendar.ModeNights)
	require.NoError(t, err)
	assert.Equal(t, 1, free)
}

func TestAvailableRoomCountIgnoresCancelledAndAdjacent(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: []*booking.Booking{
		stay("b-1", "rt-1", "r-1", 15, 18, booking.StatusCancelled),
		// Nights mode: checkout day 16 does not collide with a check-in on 16.
		stay("b-2", "rt-1", "r-2", 14, 16, booking.StatusConfirmed),
	}}
	counter := availability.NewCounter(threeRoomFixture(), bookings)

	free, err := counter.AvailableRoomCount(context.Background(), "rt-1", day(16), day(18), calendar.ModeNights)
	require.NoError(t, err)
	assert.Equal(t, 3, free)
}

func TestAvailableRoomCountDaysModeCountsSharedBoundary(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: []*booking.Booking{
		stay("b-1", "rt-1", "r-1", 14, 16, booking.StatusConfirmed),
	}}
	counter := availability.NewCounter(threeRoomFixture(), bookings)

	free, err := counter.AvailableRoomCount(context.Background(), "rt-1", day(16), day(18), calendar.ModeDays)
	require.NoError(t, err)
	assert.Equal(t, 2, free)
}

func TestAvailableRoomCountSkipsCompositeParents(t *testing.T) {
	parent := stay("b-parent", "rt-1", "", 15, 21, booking.StatusConfirmed)
	parent.Kind = booking.KindCompositeParent
	childA := stay("b-seg-1", "rt-1", "r-1", 15, 18, booking.StatusConfirmed)
	childA.Kind = booking.KindCompositeChild
	childB := stay("b-seg-2", "rt-1", "r-2", 18, 21, booking.StatusConfirmed)
	childB.Kind = booking.KindCompositeChild

	bookings := &fakeBookingRepo{bookings: []*booking.Booking{parent, childA, childB}}
	counter := availability.NewCounter(threeRoomFixture(), bookings)

	free, err := counter.AvailableRoomCount(context.Background(), "rt-1", day(16), day(18), calendar.ModeNights)
	require.NoError(t, err)
	assert.Equal(t, 2, free)
}

func TestAvailableRoomCountClampsToZero(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: []*booking.Booking{
		stay("b-1", "rt-1", "r-1", 15, 18, booking.StatusConfirmed),
		stay("b-2", "rt-1", "r-2", 15, 18, booking.StatusConfirmed),
		stay("b-3", "rt-1", "r-3", 15, 18, booking.StatusConfirmed),
		stay("b-4", "rt-1", "r-1", 15, 18, booking.StatusConfirmed),
	}}
	counter := availability.NewCounter(threeRoomFixture(), bookings)

	free, err := counter.AvailableRoomCount(context.Background(), "rt-1", day(16), day(18), calendar.ModeNights)
	require.NoError(t, err)
	assert.Equal(t, 0, free)
}

func TestIsRoomAvailable(t *testing.T) {
	bookings := &fakeBookingRepo{bookings: []*booking.Booking{
		stay("b-1", "rt-1", "r-1", 15, 18, booking.StatusConfirmed),
	}}
	counter := availability.NewCounter(threeRoomFixture(), bookings)
	ctx := context.Background()

	ok, err := counter.IsRoomAvailable(ctx, "r-1", day(16), day(18), calendar.ModeNights, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = counter.IsRoomAvailable(ctx, "r-2", day(16), day(18), calendar.ModeNights, "")
	require.NoError(t, err)
	assert.True(t, ok)

	// Excluding the occupying booking frees the room for its own reschedule.
	ok, err = counter.IsRoomAvailable(ctx, "r-1", day(16), day(18), calendar.ModeNights, "b-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsRoomAvailableRejectsInactiveRoom(t *testing.T) {
	roomRepo := threeRoomFixture()
	roomRepo.rooms["r-1"].Active = false
	counter := availability.NewCounter(roomRepo, &fakeBookingRepo{})

	ok, err := counter.IsRoomAvailable(context.Background(), "r-1", day(16), day(18), calendar.ModeNights, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityRejectsInvalidRange(t *testing.T) {
	counter := availability.NewCounter(threeRoomFixture(), &fakeBookingRepo{})

	_, err := counter.AvailableRoomCount(context.Background(), "rt-1", day(18), day(16), calendar.ModeNights)
	assert.ErrorIs(t, err, calendar.ErrInvalidRange)
}

package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
)

func date(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func standardRoomType() *rooms.RoomType {
	return &rooms.RoomType{
		ID:                 "rt-std",
		Name:               "Standard",
		Capacity:           3,
		UnitPrice:          money.Must(1000, "USD"),
		ExtraOccupantPrice: money.Must(300, "USD"),
		Active:             true,
	}
}

func newBooking(t *testing.T, id booking.BookingID, pets int, in, out int, mode calendar.Mode) *booking.Booking {
	t.Helper()
	petIDs := make([]clients.PetID, 0, pets)
	for i := 0; i < pets; i++ {
		petIDs = append(petIDs, clients.PetID(string(rune('a'+i))))
	}
	b, err := booking.New(booking.CreateParams{
		ID:         id,
		ClientID:   "cl-1",
		RoomTypeID: "rt-std",
		PetIDs:     petIDs,
		CheckIn:    date(in),
		CheckOut:   date(out),
		Mode:       mode,
		RoomType:   standardRoomType(),
		CreatedAt:  date(1),
	})
	require.NoError(t, err)
	return b
}

func TestNewPricesUnitsAndExtraPets(t *testing.T) {
	// Nights mode, 15 to 18 is 3 nights; two pets add one extra occupant.
	b := newBooking(t, "bk-1", 2, 15, 18, calendar.ModeNights)

	assert.Equal(t, int64(3000), b.Pricing.Base.Amount)
	assert.Equal(t, int64(900), b.Pricing.AdditionalPets.Amount)
	assert.Equal(t, int64(3900), b.Pricing.Total.Amount)
	assert.Equal(t, booking.StatusPending, b.Status)
	assert.Equal(t, booking.KindPlain, b.Kind)
	require.Len(t, b.PendingEvents(), 1)
}

func TestNewDaysModePricesInclusiveUnits(t *testing.T) {
	// Days mode counts both endpoints: 15 to 18 is 4 days.
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeDays)
	assert.Equal(t, int64(4000), b.Pricing.Total.Amount)
}

func TestNewValidation(t *testing.T) {
	_, err := booking.New(booking.CreateParams{
		ID: "bk-1", ClientID: "cl-1", RoomTypeID: "rt-std",
		CheckIn: date(15), CheckOut: date(18), Mode: calendar.ModeNights,
		RoomType: standardRoomType(), CreatedAt: date(1),
	})
	assert.ErrorIs(t, err, booking.ErrNoPets)

	_, err = booking.New(booking.CreateParams{
		ID: "bk-1", RoomTypeID: "rt-std", PetIDs: []clients.PetID{"p"},
		CheckIn: date(15), CheckOut: date(18), Mode: calendar.ModeNights,
		RoomType: standardRoomType(), CreatedAt: date(1),
	})
	assert.ErrorIs(t, err, booking.ErrClientRequired)

	// Days mode needs two units, a single day is too short.
	_, err = booking.New(booking.CreateParams{
		ID: "bk-1", ClientID: "cl-1", RoomTypeID: "rt-std", PetIDs: []clients.PetID{"p"},
		CheckIn: date(15), CheckOut: date(15), Mode: calendar.ModeDays,
		RoomType: standardRoomType(), CreatedAt: date(1),
	})
	assert.ErrorIs(t, err, calendar.ErrStayTooShort)

	inactive := standardRoomType()
	inactive.Active = false
	_, err = booking.New(booking.CreateParams{
		ID: "bk-1", ClientID: "cl-1", RoomTypeID: "rt-std", PetIDs: []clients.PetID{"p"},
		CheckIn: date(15), CheckOut: date(18), Mode: calendar.ModeNights,
		RoomType: inactive, CreatedAt: date(1),
	})
	assert.ErrorIs(t, err, rooms.ErrInactiveRoomType)
}

func TestDiscountPercentDerivesAmount(t *testing.T) {
	b, err := booking.New(booking.CreateParams{
		ID: "bk-1", ClientID: "cl-1", RoomTypeID: "rt-std", PetIDs: []clients.PetID{"p"},
		CheckIn: date(15), CheckOut: date(18), Mode: calendar.ModeNights,
		RoomType: standardRoomType(), DiscountPercent: 10, CreatedAt: date(1),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(300), b.Pricing.DiscountAmount.Amount)
	assert.Equal(t, int64(2700), b.Pricing.Total.Amount)
}

func TestLifecycleHappyPath(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(10)

	require.NoError(t, b.RequireApproval(now))
	assert.Equal(t, booking.StatusWaitingForPaymentApproval, b.Status)

	require.NoError(t, b.ApprovePayment(money.Must(1000, "USD"), now))
	assert.Equal(t, booking.StatusAwaitingPayment, b.Status)
	assert.True(t, b.PaymentApproved)

	require.NoError(t, b.MarkPaymentPending(now))
	assert.Equal(t, booking.StatusPaymentPending, b.Status)

	// Paid amount meets the required prepayment, not the full total.
	require.True(t, b.AdvancePaid(money.Must(1000, "USD"), now))
	assert.Equal(t, booking.StatusConfirmed, b.Status)

	require.NoError(t, b.AssignRoom("r-1", now))
	require.NoError(t, b.MarkCheckedIn(now))
	assert.Equal(t, booking.StatusCheckedIn, b.Status)

	require.NoError(t, b.MarkCheckedOut(date(18), now))
	assert.Equal(t, booking.StatusCheckedOut, b.Status)
	assert.False(t, b.EarlyCheckout)
}

func TestAdvancePaidRequiresThreshold(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(10)
	require.NoError(t, b.RequireApproval(now))
	require.NoError(t, b.ApprovePayment(money.Must(1000, "USD"), now))

	assert.False(t, b.AdvancePaid(money.Must(999, "USD"), now))
	assert.Equal(t, booking.StatusAwaitingPayment, b.Status)

	// With the prepayment cancelled the full total is required.
	require.NoError(t, b.CancelPrepayment(now))
	assert.False(t, b.AdvancePaid(money.Must(1000, "USD"), now))
	assert.True(t, b.AdvancePaid(money.Must(3000, "USD"), now))
}

func TestCheckInRequiresConfirmed(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	assert.ErrorIs(t, b.MarkCheckedIn(date(15)), booking.ErrInvalidState)
}

func TestConfirmRejectsCheckedInStay(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(15)
	require.NoError(t, b.Confirm(now))
	require.NoError(t, b.MarkCheckedIn(now))

	// Re-confirming a stay in progress would move its status backwards.
	assert.ErrorIs(t, b.Confirm(now), booking.ErrInvalidState)
	assert.Equal(t, booking.StatusCheckedIn, b.Status)
}

func TestCheckOutBeforeCheckInIsRejected(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(15)
	require.NoError(t, b.Confirm(now))
	require.NoError(t, b.MarkCheckedIn(now))

	assert.ErrorIs(t, b.MarkCheckedOut(date(14), now), booking.ErrInvalidState)
	assert.ErrorIs(t, newBooking(t, "bk-2", 1, 15, 18, calendar.ModeNights).MarkCheckedOut(date(16), now), booking.ErrNotCheckedIn)
}

func TestEarlyCheckOutPreservesOriginalDate(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 25, calendar.ModeNights)
	now := date(15)
	require.NoError(t, b.Confirm(now))
	require.NoError(t, b.MarkCheckedIn(now))

	require.NoError(t, b.MarkCheckedOut(date(22), now))
	assert.True(t, b.EarlyCheckout)
	assert.Equal(t, date(25), b.OriginalCheckOut)
	assert.Equal(t, date(22), b.CheckOut)
}

func TestCancelReleasesRoomFromAnyNonTerminalState(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(10)
	require.NoError(t, b.Confirm(now))
	require.NoError(t, b.AssignRoom("r-1", now))

	require.NoError(t, b.Cancel("client request", now))
	assert.Equal(t, booking.StatusCancelled, b.Status)
	assert.Empty(t, b.RoomID)

	assert.ErrorIs(t, b.Cancel("again", now), booking.ErrInvalidState)
	assert.ErrorIs(t, b.Confirm(now), booking.ErrInvalidState)
}

func TestUpdateDatesReprices(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	require.Equal(t, int64(3000), b.Pricing.Total.Amount)

	require.NoError(t, b.UpdateDates(date(15), date(20), calendar.ModeNights, standardRoomType(), date(10)))
	assert.Equal(t, date(20), b.CheckOut)
	assert.Equal(t, int64(5000), b.Pricing.Total.Amount)
}

func TestAssignRoomRejectedOnCompositeParent(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	b.Kind = booking.KindCompositeParent
	assert.ErrorIs(t, b.AssignRoom("r-1", date(10)), booking.ErrCompositeParentRoom)
}

func TestConvertOverpayment(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(20)
	b.Status = booking.StatusCheckedOut

	remaining := money.Must(-500, "USD")
	require.NoError(t, b.ConvertOverpayment(remaining, "kept as facility credit", now))
	assert.True(t, b.OverpaymentConverted)
	// The stored amount keeps the remaining's sign; the credit itself is 500.
	assert.Equal(t, int64(-500), b.ConvertedAmount.Amount)
	assert.Equal(t, "kept as facility credit", b.ConversionComment)

	// Conversion is one-shot.
	assert.ErrorIs(t, b.ConvertOverpayment(remaining, "again", now), booking.ErrAlreadyConverted)
}

func TestConvertOverpaymentGuards(t *testing.T) {
	b := newBooking(t, "bk-1", 1, 15, 18, calendar.ModeNights)
	now := date(20)

	assert.ErrorIs(t, b.ConvertOverpayment(money.Must(-500, "USD"), "", now), booking.ErrInvalidState)

	b.Status = booking.StatusCheckedOut
	assert.ErrorIs(t, b.ConvertOverpayment(money.Must(200, "USD"), "", now), booking.ErrNothingToConvert)
}

package payments_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/payments"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func checkedOutBooking(t *testing.T, nights int, unitPrice int64) *booking.Booking {
	t.Helper()
	checkIn := date(2025, time.March, 1)
	b, err := booking.New(booking.CreateParams{
		ID:         "bk-1",
		ClientID:   "cl-1",
		RoomTypeID: "rt-1",
		PetIDs:     []clients.PetID{"pet-1"},
		CheckIn:    checkIn,
		CheckOut:   checkIn.AddDate(0, 0, nights),
		Mode:       calendar.ModeNights,
		RoomType: &rooms.RoomType{
			ID:                 "rt-1",
			Name:               "Standard",
			Capacity:           2,
			UnitPrice:          money.Must(unitPrice, "USD"),
			ExtraOccupantPrice: money.Must(0, "USD"),
			Active:             true,
		},
		CreatedAt: checkIn.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	return b
}

func TestQuoteEarlyCheckoutSplitsPaidAmount(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)
	require.Equal(t, int64(1000), b.Pricing.Total.Amount)

	actualOut := b.CheckIn.AddDate(0, 0, 7)
	quote, err := payments.QuoteEarlyCheckout(b, money.Must(1000, "USD"), actualOut, calendar.ModeNights)
	require.NoError(t, err)

	assert.Equal(t, 10, quote.TotalUnits)
	assert.Equal(t, 7, quote.UnitsStayed)
	assert.Equal(t, 3, quote.UnitsUnused)
	assert.Equal(t, int64(100), quote.PricePerUnit.Amount)
	assert.Equal(t, int64(700), quote.AmountForStay.Amount)
	assert.Equal(t, int64(300), quote.Refund.Amount)
	assert.True(t, quote.AmountOwed.IsZero())
}

func TestQuoteEarlyCheckoutRefundNeverNegative(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)

	// Only 500 paid but 700 worth of nights stayed: the difference is owed.
	actualOut := b.CheckIn.AddDate(0, 0, 7)
	quote, err := payments.QuoteEarlyCheckout(b, money.Must(500, "USD"), actualOut, calendar.ModeNights)
	require.NoError(t, err)

	assert.True(t, quote.Refund.IsZero())
	assert.Equal(t, int64(200), quote.AmountOwed.Amount)
}

func TestQuoteEarlyCheckoutRejectsOnTimeDeparture(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)

	_, err := payments.QuoteEarlyCheckout(b, money.Must(1000, "USD"), b.CheckOut, calendar.ModeNights)
	assert.ErrorIs(t, err, payments.ErrNotEarly)

	_, err = payments.QuoteEarlyCheckout(b, money.Must(1000, "USD"), b.CheckOut.AddDate(0, 0, 2), calendar.ModeNights)
	assert.ErrorIs(t, err, payments.ErrNotEarly)
}

func TestQuoteEarlyCheckoutRejectsCompositeParent(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)
	b.Kind = booking.KindCompositeParent

	_, err := payments.QuoteEarlyCheckout(b, money.Must(1000, "USD"), b.CheckIn.AddDate(0, 0, 2), calendar.ModeNights)
	assert.ErrorIs(t, err, payments.ErrCompositeSettlement)
}

func TestQuoteEarlyCheckoutUsesOriginalRangeAfterEarlyDeparture(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)
	actualOut := b.CheckIn.AddDate(0, 0, 7)
	require.NoError(t, b.MarkPaymentPending(time.Now()))
	require.NoError(t, b.Confirm(time.Now()))
	require.NoError(t, b.MarkCheckedIn(time.Now()))
	require.NoError(t, b.MarkCheckedOut(actualOut, time.Now()))
	require.True(t, b.EarlyCheckout)

	quote, err := payments.QuoteEarlyCheckout(b, money.Must(1000, "USD"), actualOut, calendar.ModeNights)
	require.NoError(t, err)
	assert.Equal(t, 10, quote.TotalUnits)
	assert.Equal(t, int64(300), quote.Refund.Amount)
}

func TestQuoteEarlyCheckoutRoundsPerUnitPrice(t *testing.T) {
	// 1000 over 3 nights does not divide evenly; the rounded rate must still
	// settle within tolerance.
	b := checkedOutBooking(t, 3, 334)
	require.Equal(t, int64(1002), b.Pricing.Total.Amount)

	quote, err := payments.QuoteEarlyCheckout(b, money.Must(1002, "USD"), b.CheckIn.AddDate(0, 0, 2), calendar.ModeNights)
	require.NoError(t, err)
	assert.Equal(t, int64(334), quote.PricePerUnit.Amount)
	assert.Equal(t, int64(668), quote.AmountForStay.Amount)
	assert.Equal(t, int64(334), quote.Refund.Amount)
}

func TestNewRefundDefaultsToOverpayment(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)
	b.Status = booking.StatusCheckedOut

	remaining := money.Must(-300, "USD")
	p, err := payments.NewRefund("pay-r1", b, remaining, nil, payments.MethodCard, "admin-1", "early checkout refund", time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(-300), p.Amount.Amount)
	assert.Equal(t, payments.StatusRefunded, p.Status)
	assert.Equal(t, payments.TypeRefund, p.Type)
	assert.Equal(t, "admin-1", p.ConfirmedBy)
	require.Len(t, p.PendingEvents(), 1)
}

func TestNewRefundCustomAmount(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)
	b.Status = booking.StatusCancelled

	custom := money.Must(150, "USD")
	p, err := payments.NewRefund("pay-r2", b, money.Must(-300, "USD"), &custom, payments.MethodCash, "admin-1", "partial", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(-150), p.Amount.Amount)
}

func TestNewRefundGuards(t *testing.T) {
	b := checkedOutBooking(t, 10, 100)

	// Still PENDING: not a closed booking.
	_, err := payments.NewRefund("pay-r3", b, money.Must(-300, "USD"), nil, payments.MethodCard, "admin-1", "", time.Now())
	assert.ErrorIs(t, err, payments.ErrRefundNotAllowed)

	b.Status = booking.StatusCheckedOut
	b.OverpaymentConverted = true
	_, err = payments.NewRefund("pay-r4", b, money.Must(-300, "USD"), nil, payments.MethodCard, "admin-1", "", time.Now())
	assert.ErrorIs(t, err, payments.ErrOverpaymentConverted)

	b.OverpaymentConverted = false
	_, err = payments.NewRefund("pay-r5", b, money.Must(200, "USD"), nil, payments.MethodCard, "admin-1", "", time.Now())
	assert.ErrorIs(t, err, payments.ErrNothingToRefund)

	// A custom amount in a currency the booking is not priced in.
	foreign := money.Must(100, "EUR")
	_, err = payments.NewRefund("pay-r6", b, money.Must(-300, "USD"), &foreign, payments.MethodCard, "admin-1", "", time.Now())
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestTransferMovesCreditBetweenBookings(t *testing.T) {
	source := checkedOutBooking(t, 10, 100)
	source.Status = booking.StatusCheckedOut
	target := checkedOutBooking(t, 10, 100)
	target.ID = "bk-2"

	amount := money.Must(200, "USD")
	debit, credit, err := payments.Transfer("pay-d1", "pay-c1", source, target, money.Must(-300, "USD"), &amount, "admin-1", time.Now())
	require.NoError(t, err)

	assert.Equal(t, source.ID, debit.BookingID)
	assert.Equal(t, int64(-200), debit.Amount.Amount)
	assert.Equal(t, payments.StatusRefunded, debit.Status)

	assert.Equal(t, target.ID, credit.BookingID)
	assert.Equal(t, int64(200), credit.Amount.Amount)
	assert.Equal(t, payments.StatusCompleted, credit.Status)
}

func TestTransferDefaultsToFullOverpayment(t *testing.T) {
	source := checkedOutBooking(t, 10, 100)
	source.Status = booking.StatusCheckedOut
	target := checkedOutBooking(t, 10, 100)
	target.ID = "bk-2"

	debit, credit, err := payments.Transfer("pay-d2", "pay-c2", source, target, money.Must(-300, "USD"), nil, "admin-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(-300), debit.Amount.Amount)
	assert.Equal(t, int64(300), credit.Amount.Amount)
}

func TestTransferGuards(t *testing.T) {
	source := checkedOutBooking(t, 10, 100)
	source.Status = booking.StatusCheckedOut
	target := checkedOutBooking(t, 10, 100)
	target.ID = "bk-2"

	stranger := checkedOutBooking(t, 10, 100)
	stranger.ID = "bk-3"
	stranger.ClientID = "cl-2"
	_, _, err := payments.Transfer("d", "c", source, stranger, money.Must(-300, "USD"), nil, "admin-1", time.Now())
	assert.ErrorIs(t, err, payments.ErrTransferCrossClient)

	tooMuch := money.Must(301, "USD")
	_, _, err = payments.Transfer("d", "c", source, target, money.Must(-300, "USD"), &tooMuch, "admin-1", time.Now())
	assert.ErrorIs(t, err, payments.ErrTransferExceedsCredit)

	_, _, err = payments.Transfer("d", "c", source, target, money.Must(100, "USD"), nil, "admin-1", time.Now())
	assert.ErrorIs(t, err, payments.ErrTransferExceedsCredit)

	source.OverpaymentConverted = true
	_, _, err = payments.Transfer("d", "c", source, target, money.Must(-300, "USD"), nil, "admin-1", time.Now())
	assert.ErrorIs(t, err, payments.ErrOverpaymentConverted)

	source.OverpaymentConverted = false
	target.Pricing.Total = money.Must(1000, "EUR")
	_, _, err = payments.Transfer("d", "c", source, target, money.Must(-300, "USD"), nil, "admin-1", time.Now())
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

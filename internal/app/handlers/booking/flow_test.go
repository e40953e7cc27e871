package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"petstay/internal/app/commands"
	"petstay/internal/app/dto"
	bookingapp "petstay/internal/app/handlers/booking"
	paymentsapp "petstay/internal/app/handlers/payments"
	"petstay/internal/app/middleware"
	appoutbox "petstay/internal/app/outbox"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
	"petstay/internal/infra/storage/memory"
)

// testApp mirrors the production wiring: the same middleware chain over the
// in-memory storage profile.
type testApp struct {
	commands commands.Bus
	queries  queries.Bus
	factory  memory.Factory
	outbox   *memory.Outbox
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	factory := memory.NewFactory()
	box := memory.NewOutbox()
	encoder := appoutbox.JSONEventEncoder{}

	cmdBus := commands.NewInMemoryBus()
	commands.RegisterHandler(cmdBus, bookingapp.RequestBookingCommand{}.Key(),
		&bookingapp.RequestBookingHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.RequireApprovalCommand{}.Key(),
		&bookingapp.RequireApprovalHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.ApprovePaymentCommand{}.Key(),
		&bookingapp.ApprovePaymentHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.AssignRoomCommand{}.Key(),
		&bookingapp.AssignRoomHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.CheckInCommand{}.Key(),
		&bookingapp.CheckInHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.CheckOutCommand{}.Key(),
		&bookingapp.CheckOutHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, paymentsapp.SubmitPaymentCommand{}.Key(),
		&paymentsapp.SubmitPaymentHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, paymentsapp.ConfirmPaymentCommand{}.Key(),
		&paymentsapp.ConfirmPaymentHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, paymentsapp.RecordManualPaymentCommand{}.Key(),
		&paymentsapp.RecordManualPaymentHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.MergeBookingsCommand{}.Key(),
		&bookingapp.MergeBookingsHandler{UoWFactory: factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(cmdBus, bookingapp.DeleteBookingCommand{}.Key(),
		&bookingapp.DeleteBookingHandler{UoWFactory: factory})

	qryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(qryBus, bookingapp.GetBookingQuery{}.Key(),
		&bookingapp.GetBookingHandler{UoWFactory: factory})

	return &testApp{
		commands: middleware.ChainCommands(
			cmdBus,
			middleware.Idempotency(memory.NewIdempotencyStore(), nil),
			middleware.Transaction(factory, nil),
			middleware.OutboxFlush(box),
		),
		queries: middleware.ChainQueries(qryBus),
		factory: factory,
		outbox:  box,
	}
}

func (a *testApp) seed(t *testing.T, ctx context.Context, roomCount int) {
	t.Helper()
	unit, err := a.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	require.NoError(t, unit.Clients().Save(ctx, &clients.Client{ID: "client-1", Name: "Dana", Email: "dana@example.com"}))
	require.NoError(t, unit.Clients().SavePet(ctx, &clients.Pet{ID: "pet-1", OwnerID: "client-1", Name: "Rex", Species: "dog"}))

	require.NoError(t, unit.Rooms().SaveRoomType(ctx, &rooms.RoomType{
		ID:                 "standard",
		Name:               "Standard Kennel",
		Capacity:           2,
		UnitPrice:          money.Money{Amount: 1000, Currency: "USD"},
		ExtraOccupantPrice: money.Money{Amount: 300, Currency: "USD"},
		Active:             true,
	}))
	for i := 0; i < roomCount; i++ {
		id := rooms.RoomID([]string{"room-1", "room-2", "room-3"}[i])
		require.NoError(t, unit.Rooms().SaveRoom(ctx, &rooms.Room{ID: id, RoomTypeID: "standard", Name: string(id), Active: true}))
	}
	require.NoError(t, unit.Commit(ctx))
}

func TestBookingLifecycleThroughBuses(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seed(t, ctx, 1)

	checkIn := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, time.March, 13, 0, 0, 0, 0, time.UTC)

	request := bookingapp.RequestBookingCommand{
		CommandID:       "bk-100",
		ClientID:        "client-1",
		RoomTypeID:      "standard",
		PetIDs:          []string{"pet-1"},
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		IdempotencyKeyV: "req-100",
	}
	res, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands, request)
	require.NoError(t, err)
	require.Equal(t, "bk-100", res.BookingID)
	require.Equal(t, int64(3000), res.Total) // three nights at 1000

	// A retry with the same idempotency key replays the stored result.
	replay, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands, request)
	require.NoError(t, err)
	require.Equal(t, res.BookingID, replay.BookingID)

	_, err = commands.Dispatch[bookingapp.RequireApprovalCommand, struct{}](ctx, app.commands,
		bookingapp.RequireApprovalCommand{BookingID: "bk-100"})
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.ApprovePaymentCommand, struct{}](ctx, app.commands,
		bookingapp.ApprovePaymentCommand{BookingID: "bk-100", RequiredPrepayment: 1500})
	require.NoError(t, err)

	view, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingView](ctx, app.queries,
		bookingapp.GetBookingQuery{BookingID: "bk-100"})
	require.NoError(t, err)
	require.Equal(t, "AWAITING_PAYMENT", view.Status)

	_, err = commands.Dispatch[paymentsapp.SubmitPaymentCommand, *paymentsapp.SubmitPaymentResult](ctx, app.commands,
		paymentsapp.SubmitPaymentCommand{
			PaymentID:       "pay-1",
			BookingID:       "bk-100",
			Amount:          1500,
			Currency:        "USD",
			Method:          "CARD",
			Type:            "PREPAYMENT",
			IdempotencyKeyV: "pay-1",
		})
	require.NoError(t, err)

	confirm, err := commands.Dispatch[paymentsapp.ConfirmPaymentCommand, *paymentsapp.ConfirmPaymentResult](ctx, app.commands,
		paymentsapp.ConfirmPaymentCommand{PaymentID: "pay-1", AdminID: "admin-1"})
	require.NoError(t, err)
	require.Equal(t, "CONFIRMED", confirm.BookingStatus)
	require.Equal(t, int64(1500), confirm.Paid)
	require.Equal(t, int64(1500), confirm.Remaining)

	_, err = commands.Dispatch[bookingapp.AssignRoomCommand, struct{}](ctx, app.commands,
		bookingapp.AssignRoomCommand{BookingID: "bk-100", RoomID: "room-1"})
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.CheckInCommand, struct{}](ctx, app.commands,
		bookingapp.CheckInCommand{BookingID: "bk-100"})
	require.NoError(t, err)

	out, err := commands.Dispatch[bookingapp.CheckOutCommand, *bookingapp.CheckOutResult](ctx, app.commands,
		bookingapp.CheckOutCommand{BookingID: "bk-100", ActualCheckOut: checkOut})
	require.NoError(t, err)
	require.False(t, out.Early)
	require.Equal(t, int64(1500), out.Remaining)

	// Successful dispatches flush the outbox buffer.
	require.Empty(t, app.outbox.Pending())
}

func TestRequestBookingRejectsWhenNoCapacity(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seed(t, ctx, 1)

	checkIn := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, time.March, 13, 0, 0, 0, 0, time.UTC)

	_, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands,
		bookingapp.RequestBookingCommand{
			CommandID:       "bk-200",
			ClientID:        "client-1",
			RoomTypeID:      "standard",
			PetIDs:          []string{"pet-1"},
			CheckIn:         checkIn,
			CheckOut:        checkOut,
			IdempotencyKeyV: "req-200",
		})
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands,
		bookingapp.RequestBookingCommand{
			CommandID:       "bk-201",
			ClientID:        "client-1",
			RoomTypeID:      "standard",
			PetIDs:          []string{"pet-1"},
			CheckIn:         checkIn.AddDate(0, 0, 1),
			CheckOut:        checkOut.AddDate(0, 0, 1),
			IdempotencyKeyV: "req-201",
		})
	require.ErrorContains(t, err, bookingapp.ErrNoCapacity.Error())
}

func TestDeleteCompositeParentCascades(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seed(t, ctx, 1)

	// Two back-to-back stays; the nights convention frees the checkout day,
	// so one room carries both.
	first := bookingapp.RequestBookingCommand{
		CommandID:       "bk-300",
		ClientID:        "client-1",
		RoomTypeID:      "standard",
		PetIDs:          []string{"pet-1"},
		CheckIn:         time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:        time.Date(2026, time.April, 4, 0, 0, 0, 0, time.UTC),
		IdempotencyKeyV: "req-300",
	}
	second := first
	second.CommandID = "bk-301"
	second.CheckIn = first.CheckOut
	second.CheckOut = first.CheckOut.AddDate(0, 0, 2)
	second.IdempotencyKeyV = "req-301"

	_, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands, first)
	require.NoError(t, err)
	_, err = commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands, second)
	require.NoError(t, err)

	merged, err := commands.Dispatch[bookingapp.MergeBookingsCommand, *bookingapp.MergeBookingsResult](ctx, app.commands,
		bookingapp.MergeBookingsCommand{
			ParentID:        "bk-302",
			BookingIDs:      []string{"bk-300", "bk-301"},
			IdempotencyKeyV: "merge-302",
		})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"bk-300", "bk-301"}, merged.SegmentIDs)

	// Money recorded against the parent and against a segment alike.
	_, err = commands.Dispatch[paymentsapp.RecordManualPaymentCommand, *paymentsapp.ConfirmPaymentResult](ctx, app.commands,
		paymentsapp.RecordManualPaymentCommand{
			PaymentID: "pay-parent", BookingID: "bk-302",
			Amount: 500, Currency: "USD", Method: "CASH", Type: "FULL_PAYMENT", AdminID: "admin-1",
		})
	require.NoError(t, err)
	_, err = commands.Dispatch[paymentsapp.RecordManualPaymentCommand, *paymentsapp.ConfirmPaymentResult](ctx, app.commands,
		paymentsapp.RecordManualPaymentCommand{
			PaymentID: "pay-segment", BookingID: "bk-300",
			Amount: 300, Currency: "USD", Method: "CARD", Type: "FULL_PAYMENT", AdminID: "admin-1",
		})
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.DeleteBookingCommand, struct{}](ctx, app.commands,
		bookingapp.DeleteBookingCommand{BookingID: "bk-302"})
	require.NoError(t, err)

	unit, err := app.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	for _, id := range []string{"bk-302", "bk-300", "bk-301"} {
		_, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
		require.ErrorIs(t, err, domainbooking.ErrBookingNotFound, id)

		left, err := unit.Payments().ByBooking(ctx, domainbooking.BookingID(id))
		require.NoError(t, err)
		require.Empty(t, left, id)
	}
	require.NoError(t, unit.Rollback(ctx))
}

func TestManualPaymentRejectsForeignCurrency(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t)
	app.seed(t, ctx, 1)

	_, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](ctx, app.commands,
		bookingapp.RequestBookingCommand{
			CommandID:       "bk-400",
			ClientID:        "client-1",
			RoomTypeID:      "standard",
			PetIDs:          []string{"pet-1"},
			CheckIn:         time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:        time.Date(2026, time.May, 3, 0, 0, 0, 0, time.UTC),
			IdempotencyKeyV: "req-400",
		})
	require.NoError(t, err)

	// A payment in the wrong currency is rejected outright instead of being
	// stored and left out of the paid total.
	_, err = commands.Dispatch[paymentsapp.RecordManualPaymentCommand, *paymentsapp.ConfirmPaymentResult](ctx, app.commands,
		paymentsapp.RecordManualPaymentCommand{
			PaymentID: "pay-eur", BookingID: "bk-400",
			Amount: 500, Currency: "EUR", Method: "CASH", Type: "FULL_PAYMENT", AdminID: "admin-1",
		})
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)

	unit, err := app.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	stored, err := unit.Payments().ByBooking(ctx, "bk-400")
	require.NoError(t, err)
	require.Empty(t, stored)
	require.NoError(t, unit.Rollback(ctx))
}

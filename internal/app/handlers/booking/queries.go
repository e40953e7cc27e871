package booking

import (
	"context"

	"petstay/internal/app/dto"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/clients"
)

const (
	getBookingKey         = "booking.get"
	listClientBookingsKey = "booking.list_by_client"
)

// GetBookingQuery returns a single booking with its settlement figures.
type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingView, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingView{}, err
	}
	return mapWithSettlement(ctx, unit, b)
}

// ListClientBookingsQuery returns all bookings of one client, composite
// parents and segments included.
type ListClientBookingsQuery struct {
	ClientID string
}

func (q ListClientBookingsQuery) Key() string { return listClientBookingsKey }

type ListClientBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListClientBookingsHandler) Handle(ctx context.Context, q ListClientBookingsQuery) ([]dto.BookingView, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	list, err := unit.Bookings().ListByClient(ctx, clients.ClientID(q.ClientID))
	if err != nil {
		return nil, err
	}
	views := make([]dto.BookingView, 0, len(list))
	for _, b := range list {
		view, err := mapWithSettlement(ctx, unit, b)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func mapWithSettlement(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) (dto.BookingView, error) {
	paid, err := support.PaidFor(ctx, unit, b)
	if err != nil {
		return dto.BookingView{}, err
	}
	remaining, err := support.RemainingFor(ctx, unit, b)
	if err != nil {
		return dto.BookingView{}, err
	}
	return dto.MapBooking(b,
		dto.Amount{Amount: paid.Amount, Currency: paid.Currency},
		dto.Amount{Amount: remaining.Amount, Currency: remaining.Currency},
	), nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingView] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListClientBookingsQuery, []dto.BookingView] = (*ListClientBookingsHandler)(nil)

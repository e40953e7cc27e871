package payments

import (
	"context"

	"petstay/internal/app/dto"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
)

const listBookingPaymentsKey = "payment.list_by_booking"

// ListBookingPaymentsQuery returns the full payment history of a booking,
// refunds and rejected attempts included.
type ListBookingPaymentsQuery struct {
	BookingID string
}

func (q ListBookingPaymentsQuery) Key() string { return listBookingPaymentsKey }

type ListBookingPaymentsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingPaymentsHandler) Handle(ctx context.Context, q ListBookingPaymentsQuery) ([]dto.PaymentView, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	list, err := unit.Payments().ByBooking(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return nil, err
	}
	views := make([]dto.PaymentView, 0, len(list))
	for _, p := range list {
		views = append(views, dto.MapPayment(p))
	}
	return views, nil
}

var _ queries.Handler[ListBookingPaymentsQuery, []dto.PaymentView] = (*ListBookingPaymentsHandler)(nil)

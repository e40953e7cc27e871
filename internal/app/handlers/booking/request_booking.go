package booking

import (
	"context"
	"errors"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/middleware"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	"petstay/internal/domain/availability"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
)

const requestBookingKey = "booking.request"

var ErrNoCapacity = errors.New("booking: no rooms of the type are free for the range")

type RequestBookingCommand struct {
	CommandID       string
	ClientID        string
	RoomTypeID      string
	PetIDs          []string
	CheckIn         time.Time
	CheckOut        time.Time
	Services        int64
	Currency        string
	DiscountPercent int
	SpecialRequests string
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, err := h.execute(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *RequestBookingHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return nil, err
	}

	if _, err := unit.Clients().ByID(ctx, clients.ClientID(cmd.ClientID)); err != nil {
		return nil, err
	}
	roomType, err := unit.Rooms().RoomType(ctx, rooms.RoomTypeID(cmd.RoomTypeID))
	if err != nil {
		return nil, err
	}

	counter := availability.NewCounter(unit.Rooms(), unit.Bookings())
	free, err := counter.AvailableRoomCount(ctx, roomType.ID, cmd.CheckIn, cmd.CheckOut, mode)
	if err != nil {
		return nil, err
	}
	if free < 1 {
		return nil, ErrNoCapacity
	}

	petIDs := make([]clients.PetID, 0, len(cmd.PetIDs))
	for _, id := range cmd.PetIDs {
		petIDs = append(petIDs, clients.PetID(id))
	}
	services := money.Zero(roomType.UnitPrice.Currency)
	if cmd.Services > 0 {
		currency := cmd.Currency
		if currency == "" {
			currency = roomType.UnitPrice.Currency
		}
		services, err = money.New(cmd.Services, currency)
		if err != nil {
			return nil, err
		}
	}

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		ClientID:        clients.ClientID(cmd.ClientID),
		RoomTypeID:      roomType.ID,
		PetIDs:          petIDs,
		CheckIn:         cmd.CheckIn,
		CheckOut:        cmd.CheckOut,
		Mode:            mode,
		RoomType:        roomType,
		Services:        services,
		DiscountPercent: cmd.DiscountPercent,
		SpecialRequests: cmd.SpecialRequests,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, b); err != nil {
		return nil, err
	}

	return &RequestBookingResult{
		BookingID: string(b.ID),
		Total:     b.Pricing.Total.Amount,
		Currency:  b.Pricing.Total.Currency,
	}, nil
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)

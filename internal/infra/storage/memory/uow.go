package memory

import (
	"context"
	"errors"

	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	domainclients "petstay/internal/domain/clients"
	domainpayments "petstay/internal/domain/payments"
	domainrooms "petstay/internal/domain/rooms"
	domainsettings "petstay/internal/domain/settings"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	RoomRepo     domainrooms.Repository
	ClientRepo   domainclients.Repository
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayments.Repository
	SettingsRepo domainsettings.Repository
}

// NewFactory builds a factory over fresh in-memory repositories, the setup
// used by tests and the dev profile.
func NewFactory() Factory {
	return Factory{
		RoomRepo:     NewRoomRepository(),
		ClientRepo:   NewClientRepository(),
		BookingRepo:  NewBookingRepository(),
		PaymentRepo:  NewPaymentRepository(),
		SettingsRepo: NewSettingsRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.RoomRepo == nil || f.ClientRepo == nil || f.BookingRepo == nil || f.PaymentRepo == nil || f.SettingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		rooms:    f.RoomRepo,
		clients:  f.ClientRepo,
		bookings: f.BookingRepo,
		payments: f.PaymentRepo,
		settings: f.SettingsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	rooms    domainrooms.Repository
	clients  domainclients.Repository
	bookings domainbooking.Repository
	payments domainpayments.Repository
	settings domainsettings.Repository
}

func (u *Unit) Rooms() domainrooms.Repository { return u.rooms }

func (u *Unit) Clients() domainclients.Repository { return u.clients }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Payments() domainpayments.Repository { return u.payments }

func (u *Unit) Settings() domainsettings.Repository { return u.settings }

func (u *Unit) Commit(ctx context.Context) error { return nil }

func (u *Unit) Rollback(ctx context.Context) error { return nil }

var _ uow.UoWFactory = Factory{}

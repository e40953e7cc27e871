package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	domainclients "petstay/internal/domain/clients"
	domainpayments "petstay/internal/domain/payments"
	domainrooms "petstay/internal/domain/rooms"
	domainsettings "petstay/internal/domain/settings"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	RoomRepo     domainrooms.Repository
	ClientRepo   domainclients.Repository
	BookingRepo  domainbooking.Repository
	PaymentRepo  domainpayments.Repository
	SettingsRepo domainsettings.Repository
}

// NewFactory builds the factory with repositories bound to the database.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:           db,
		RoomRepo:     NewRoomRepository(db),
		ClientRepo:   NewClientRepository(db),
		BookingRepo:  NewBookingRepository(db),
		PaymentRepo:  NewPaymentRepository(db),
		SettingsRepo: NewSettingsRepository(db),
	}
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:       f.DB,
		session:  session,
		rooms:    f.RoomRepo,
		clients:  f.ClientRepo,
		bookings: f.BookingRepo,
		payments: f.PaymentRepo,
		settings: f.SettingsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

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

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures the Mongo session is available in context for
// downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}

package uow

import (
	"context"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/payments"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/settings"
)

// TxOptions tunes how a unit of work is opened.
type TxOptions struct {
	ReadOnly bool
}

// UnitOfWork scopes repository access to one transaction. Implementations
// may additionally expose InjectContext(ctx) to bind a driver session to
// the context; the transaction middleware detects and applies it.
type UnitOfWork interface {
	Rooms() rooms.Repository
	Clients() clients.Repository
	Bookings() booking.Repository
	Payments() payments.Repository
	Settings() settings.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory opens units of work.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

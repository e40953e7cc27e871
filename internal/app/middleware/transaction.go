package middleware

import (
	"context"
	"errors"

	"petstay/internal/app/commands"
	"petstay/internal/app/uow"
)

var ErrUnitOfWorkMissing = errors.New("middleware: unit of work not found")

// TxOptionsProvider lets a command opt into non-default transaction options,
// typically a read-only unit for dry-run style commands.
type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction opens a unit of work around every dispatch and stores it in
// the context so handlers share the same transactional boundary. The unit
// commits only when the handler succeeds.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := bindUnit(ctx, unit)

			res, err := nextFn(execCtx, cmd)
			if err != nil {
				_ = unit.Rollback(execCtx)
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				_ = unit.Rollback(execCtx)
				return nil, err
			}
			return res, nil
		})
	}
}

// bindUnit stores the unit in context and lets driver-backed units attach
// their session to it (the Mongo unit does).
func bindUnit(ctx context.Context, unit uow.UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(ctx, unit)
}

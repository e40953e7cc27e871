package support

import (
	"context"

	"petstay/internal/app/uow"
)

// BeginReadOnlyUnit reuses the ambient unit of work when the bus middleware
// already opened one, otherwise it opens a read-only unit and returns its
// cleanup func.
func BeginReadOnlyUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := injectUnit(ctx, newUnit)
	cleanup := func() {
		_ = newUnit.Rollback(execCtx)
	}
	return newUnit, execCtx, cleanup, nil
}

// BeginUnit returns the ambient unit when present; otherwise it opens a
// writable unit the handler owns. The returned finish func commits an owned
// unit on nil and rolls it back otherwise, always passing the handler error
// through.
func BeginUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(error) error, error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, func(err error) error { return err }, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := injectUnit(ctx, newUnit)
	finish := func(err error) error {
		if err != nil {
			_ = newUnit.Rollback(execCtx)
			return err
		}
		return newUnit.Commit(execCtx)
	}
	return newUnit, execCtx, finish, nil
}

func injectUnit(ctx context.Context, unit uow.UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return uow.ContextWithUnitOfWork(ctx, unit)
}

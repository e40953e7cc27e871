package middleware

import (
	"context"

	"petstay/internal/app/commands"
	"petstay/internal/app/queries"
)

// CommandMiddleware decorates a command bus. The first middleware passed to
// ChainCommands ends up outermost, so it sees the dispatch before the rest.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates a query bus the same way.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps the base bus with the given middleware.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	bus := base
	for i := len(mws) - 1; i >= 0; i-- {
		bus = mws[i](bus)
	}
	return bus
}

// ChainQueries wraps the base query bus with the given middleware.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	bus := base
	for i := len(mws) - 1; i >= 0; i-- {
		bus = mws[i](bus)
	}
	return bus
}

// commandFunc lets a closure act as a commands.Bus, which keeps middleware
// free of one-off wrapper structs.
type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

func wrapCommand(next commands.Bus) commandFunc {
	return func(ctx context.Context, cmd commands.Command) (any, error) {
		return next.Dispatch(ctx, cmd)
	}
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

func wrapQuery(next queries.Bus) queryFunc {
	return func(ctx context.Context, q queries.Query) (any, error) {
		return next.Ask(ctx, q)
	}
}

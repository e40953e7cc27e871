package middleware

import (
	"context"
	"log/slog"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/queries"
)

// CommandLogging logs every dispatch with its key, duration and outcome.
func CommandLogging(logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := nextFn(ctx, cmd)
			if logger != nil {
				attrs := []any{"command", cmd.Key(), "duration", time.Since(start)}
				if err != nil {
					logger.Warn("command failed", append(attrs, "error", err)...)
				} else {
					logger.Debug("command handled", attrs...)
				}
			}
			return res, err
		})
	}
}

// QueryLogging logs failed queries; successful reads stay quiet.
func QueryLogging(logger *slog.Logger) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			res, err := nextFn(ctx, q)
			if err != nil && logger != nil {
				logger.Warn("query failed", "query", q.Key(), "error", err)
			}
			return res, err
		})
	}
}

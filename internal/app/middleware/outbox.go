package middleware

import (
	"context"

	"petstay/internal/app/commands"
	"petstay/internal/app/outbox"
)

// OutboxFlush pushes the booking and payment events a handler buffered into
// the outbox once the dispatch succeeds. A failed handler leaves the buffer
// untouched for the next dispatch to carry, so a rejected command never
// announces a stay or a payment that was rolled back.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}

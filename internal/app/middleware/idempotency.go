package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"petstay/internal/app/commands"
)

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// IdempotentCommand marks a command whose result must be replayed on retry.
// ResultPrototype returns a pointer the stored payload decodes into; its
// type must match what the handler returns.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

// IdempotencyRecord is the stored outcome of one keyed dispatch. A non-empty
// Error means the original dispatch failed and retries fail the same way.
type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

// ResultCodec serializes dispatch results for storage.
type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

// Idempotency replays the stored outcome for commands that carry a key.
// Commands without a key, or with an empty one, pass straight through.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return nextFn(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()

			if rec, found, err := store.Get(ctx, key); err != nil {
				return nil, err
			} else if found {
				return replay(codec, idCmd, rec)
			}

			result, err := nextFn(ctx, cmd)
			rec := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if err != nil {
				rec.Error = err.Error()
				if saveErr := store.Save(ctx, rec); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				if rec.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, rec); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func replay(codec ResultCodec, cmd IdempotentCommand, rec IdempotencyRecord) (any, error) {
	if rec.Error != "" {
		return nil, errors.New(rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	if rv := reflect.ValueOf(proto); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, errMissingPrototype
	}
	return proto, nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"petstay/internal/app/commands"
	availabilityapp "petstay/internal/app/handlers/availability"
	bookingapp "petstay/internal/app/handlers/booking"
	paymentsapp "petstay/internal/app/handlers/payments"
	settingsapp "petstay/internal/app/handlers/settings"
	"petstay/internal/app/middleware"
	appoutbox "petstay/internal/app/outbox"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
	"petstay/internal/infra/broker/kafka"
	"petstay/internal/infra/config"
	mongodb "petstay/internal/infra/db/mongo"
	"petstay/internal/infra/obs"
	infraoutbox "petstay/internal/infra/outbox"
	"petstay/internal/infra/storage/memory"
	"petstay/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration load failed", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}

	if cfg.StorageMode == "memory" {
		fixturesPath := getenv("ROOM_FIXTURES", defaultRoomFixturesPath())
		if err := app.loadRoomFixtures(ctx, fixturesPath, logger); err != nil {
			logger.Warn("room fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
				stop()
			}
		}()
	}

	logger.Info("petstay application ready", "storage", cfg.StorageMode, "env", cfg.Env)
	<-ctx.Done()

	if app.producer != nil {
		if err := app.producer.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}
	logger.Info("petstay application stopped")
}

type application struct {
	Commands commands.Bus
	Queries  queries.Bus

	factory  uow.UoWFactory
	worker   *infraoutbox.Worker
	producer *kafka.Producer
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}

	var (
		box     appoutbox.Outbox
		idStore middleware.IdempotencyStore
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		app.factory = mongodb.NewFactory(client.DB)
		idStore = mongodb.NewIdempotencyStore(client.DB)
		store := infraoutbox.NewStore(client.DB)
		box = store

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("connect kafka: %w", err)
			}
			app.producer = producer
			app.worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("kafka brokers not configured, outbox events will accumulate")
		}
	default:
		app.factory = memory.NewFactory()
		idStore = memory.NewIdempotencyStore()
		box = memory.NewOutbox()
	}

	var proofs paymentsapp.ProofStore = s3.NoopProofStore{}
	if cfg.S3Endpoint != "" {
		store, err := s3.NewProofStore(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("payment proof storage unavailable", "error", err)
		} else {
			proofs = store
		}
	}

	encoder := appoutbox.JSONEventEncoder{}
	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(),
		&bookingapp.RequestBookingHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.RequireApprovalCommand{}.Key(),
		&bookingapp.RequireApprovalHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.ApprovePaymentCommand{}.Key(),
		&bookingapp.ApprovePaymentHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.CancelPrepaymentCommand{}.Key(),
		&bookingapp.CancelPrepaymentHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(),
		&bookingapp.ConfirmBookingHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.AssignRoomCommand{}.Key(),
		&bookingapp.AssignRoomHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.UpdateDatesCommand{}.Key(),
		&bookingapp.UpdateDatesHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.UpdateRoomAndDatesCommand{}.Key(),
		&bookingapp.UpdateRoomAndDatesHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.CheckInCommand{}.Key(),
		&bookingapp.CheckInHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.CheckOutCommand{}.Key(),
		&bookingapp.CheckOutHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(),
		&bookingapp.CancelBookingHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, bookingapp.DeleteBookingCommand{}.Key(),
		&bookingapp.DeleteBookingHandler{UoWFactory: app.factory})
	commands.RegisterHandler(commandBus, bookingapp.MergeBookingsCommand{}.Key(),
		&bookingapp.MergeBookingsHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})

	commands.RegisterHandler(commandBus, paymentsapp.SubmitPaymentCommand{}.Key(),
		&paymentsapp.SubmitPaymentHandler{UoWFactory: app.factory, Proofs: proofs, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, paymentsapp.ConfirmPaymentCommand{}.Key(),
		&paymentsapp.ConfirmPaymentHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, paymentsapp.RejectPaymentCommand{}.Key(),
		&paymentsapp.RejectPaymentHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, paymentsapp.RecordManualPaymentCommand{}.Key(),
		&paymentsapp.RecordManualPaymentHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, paymentsapp.AnnotatePaymentCommand{}.Key(),
		&paymentsapp.AnnotatePaymentHandler{UoWFactory: app.factory})
	commands.RegisterHandler(commandBus, paymentsapp.IssueRefundCommand{}.Key(),
		&paymentsapp.IssueRefundHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, paymentsapp.TransferCreditCommand{}.Key(),
		&paymentsapp.TransferCreditHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})
	commands.RegisterHandler(commandBus, paymentsapp.ConvertOverpaymentCommand{}.Key(),
		&paymentsapp.ConvertOverpaymentHandler{UoWFactory: app.factory, Outbox: box, Encoder: encoder})

	commands.RegisterHandler(commandBus, settingsapp.UpdateSettingsCommand{}.Key(),
		&settingsapp.UpdateSettingsHandler{UoWFactory: app.factory})

	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(),
		&bookingapp.GetBookingHandler{UoWFactory: app.factory})
	queries.RegisterHandler(queryBus, bookingapp.ListClientBookingsQuery{}.Key(),
		&bookingapp.ListClientBookingsHandler{UoWFactory: app.factory})
	queries.RegisterHandler(queryBus, paymentsapp.ListBookingPaymentsQuery{}.Key(),
		&paymentsapp.ListBookingPaymentsHandler{UoWFactory: app.factory})
	queries.RegisterHandler(queryBus, paymentsapp.EarlyCheckoutQuoteQuery{}.Key(),
		&paymentsapp.EarlyCheckoutQuoteHandler{UoWFactory: app.factory})
	queries.RegisterHandler(queryBus, availabilityapp.RoomTypeAvailabilityQuery{}.Key(),
		&availabilityapp.RoomTypeAvailabilityHandler{UoWFactory: app.factory})
	queries.RegisterHandler(queryBus, availabilityapp.RoomAvailabilityQuery{}.Key(),
		&availabilityapp.RoomAvailabilityHandler{UoWFactory: app.factory})
	queries.RegisterHandler(queryBus, settingsapp.GetSettingsQuery{}.Key(),
		&settingsapp.GetSettingsHandler{UoWFactory: app.factory})

	app.Commands = middleware.ChainCommands(
		commandBus,
		middleware.CommandLogging(logger),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(app.factory, nil),
		middleware.OutboxFlush(box),
	)
	app.Queries = middleware.ChainQueries(queryBus, middleware.QueryLogging(logger))
	return app, nil
}

type roomFixture struct {
	Type struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		Capacity           int    `json:"capacity"`
		UnitPrice          int64  `json:"unit_price"`
		ExtraOccupantPrice int64  `json:"extra_occupant_price"`
		Currency           string `json:"currency"`
	} `json:"type"`
	Rooms []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"rooms"`
}

// loadRoomFixtures seeds the in-memory profile with room types and rooms so
// availability queries have something to count.
func (a *application) loadRoomFixtures(ctx context.Context, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("room fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}

	var fixtures []roomFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return nil
	}

	unit, err := a.factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = unit.Rollback(ctx) }()

	for _, fx := range fixtures {
		currency := fx.Type.Currency
		if currency == "" {
			currency = "USD"
		}
		unitPrice, err := money.New(fx.Type.UnitPrice, currency)
		if err != nil {
			return fmt.Errorf("fixture %s: %w", fx.Type.ID, err)
		}
		extraPrice, err := money.New(fx.Type.ExtraOccupantPrice, currency)
		if err != nil {
			return fmt.Errorf("fixture %s: %w", fx.Type.ID, err)
		}
		rt := &rooms.RoomType{
			ID:                 rooms.RoomTypeID(fx.Type.ID),
			Name:               fx.Type.Name,
			Capacity:           fx.Type.Capacity,
			UnitPrice:          unitPrice,
			ExtraOccupantPrice: extraPrice,
			Active:             true,
		}
		if err := unit.Rooms().SaveRoomType(ctx, rt); err != nil {
			return err
		}
		for _, rm := range fx.Rooms {
			room := &rooms.Room{
				ID:         rooms.RoomID(rm.ID),
				RoomTypeID: rt.ID,
				Name:       rm.Name,
				Active:     true,
			}
			if err := unit.Rooms().SaveRoom(ctx, room); err != nil {
				return err
			}
		}
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	logger.Info("room fixtures loaded", "types", len(fixtures), "path", path)
	return nil
}

func defaultRoomFixturesPath() string {
	return filepath.Join("fixtures", "rooms.json")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

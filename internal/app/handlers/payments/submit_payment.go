package payments

import (
	"context"
	"fmt"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/middleware"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	domainpayments "petstay/internal/domain/payments"
	"petstay/internal/domain/shared/money"
)

const submitPaymentKey = "payment.submit"

// ProofStore persists uploaded payment confirmations (receipts, transfer
// screenshots) and returns a stable reference.
type ProofStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// SubmitPaymentCommand opens a client-submitted payment pending review. The
// optional proof document is stored and referenced from the record.
type SubmitPaymentCommand struct {
	PaymentID        string
	BookingID        string
	Amount           int64
	Currency         string
	Method           string
	Type             string
	TransactionID    string
	Proof            []byte
	ProofContentType string
	IdempotencyKeyV  string
}

func (c SubmitPaymentCommand) Key() string { return submitPaymentKey }

func (c SubmitPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitPaymentCommand) ResultPrototype() any { return &SubmitPaymentResult{} }

type SubmitPaymentResult struct {
	PaymentID string `json:"payment_id"`
	ProofRef  string `json:"proof_ref,omitempty"`
}

type SubmitPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Proofs     ProofStore
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *SubmitPaymentHandler) Handle(ctx context.Context, cmd SubmitPaymentCommand) (*SubmitPaymentResult, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, err := h.execute(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *SubmitPaymentHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd SubmitPaymentCommand) (*SubmitPaymentResult, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	amount, err := money.New(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	if amount.Currency != b.Pricing.Total.Currency {
		return nil, fmt.Errorf("payments: booking %s is priced in %s: %w",
			b.ID, b.Pricing.Total.Currency, money.ErrCurrencyMismatch)
	}
	p, err := domainpayments.NewPending(
		domainpayments.PaymentID(cmd.PaymentID),
		b.ID,
		amount,
		domainpayments.Method(cmd.Method),
		domainpayments.Type(cmd.Type),
		time.Now(),
	)
	if err != nil {
		return nil, err
	}
	p.TransactionID = cmd.TransactionID

	if len(cmd.Proof) > 0 && h.Proofs != nil {
		name := fmt.Sprintf("proofs/%s/%s", cmd.BookingID, cmd.PaymentID)
		ref, err := h.Proofs.Put(ctx, name, cmd.Proof, cmd.ProofContentType)
		if err != nil {
			return nil, err
		}
		p.ProofRef = ref
	}

	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}

	// The booking reflects that money is on its way to review.
	if err := b.MarkPaymentPending(time.Now()); err == nil {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}
	}

	return &SubmitPaymentResult{PaymentID: string(p.ID), ProofRef: p.ProofRef}, nil
}

var _ commands.Handler[SubmitPaymentCommand, *SubmitPaymentResult] = (*SubmitPaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*SubmitPaymentCommand)(nil)

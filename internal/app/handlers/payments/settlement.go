package payments

import (
	"context"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/outbox"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	domainpayments "petstay/internal/domain/payments"
	"petstay/internal/domain/shared/money"
)

const (
	issueRefundKey        = "payment.refund"
	transferCreditKey     = "payment.transfer"
	convertOverpaymentKey = "payment.convert_overpayment"
	earlyCheckoutQuoteKey = "payment.early_checkout_quote"
)

// IssueRefundCommand pays credit back to the client. Without an explicit
// amount the full overpayment is returned.
type IssueRefundCommand struct {
	PaymentID string
	BookingID string
	Amount    int64
	Currency  string
	Method    string
	AdminID   string
	Comment   string
}

func (c IssueRefundCommand) Key() string { return issueRefundKey }

type IssueRefundResult struct {
	PaymentID string `json:"payment_id"`
	Refunded  int64  `json:"refunded"`
}

type IssueRefundHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *IssueRefundHandler) Handle(ctx context.Context, cmd IssueRefundCommand) (*IssueRefundResult, error) {
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

func (h *IssueRefundHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd IssueRefundCommand) (*IssueRefundResult, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	remaining, err := support.RemainingFor(ctx, unit, b)
	if err != nil {
		return nil, err
	}

	var custom *money.Money
	if cmd.Amount > 0 {
		currency := cmd.Currency
		if currency == "" {
			currency = b.Pricing.Total.Currency
		}
		amount, err := money.New(cmd.Amount, currency)
		if err != nil {
			return nil, err
		}
		custom = &amount
	}

	p, err := domainpayments.NewRefund(
		domainpayments.PaymentID(cmd.PaymentID),
		b, remaining, custom,
		domainpayments.Method(cmd.Method),
		cmd.AdminID, cmd.Comment,
		time.Now(),
	)
	if err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, p); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, p); err != nil {
		return nil, err
	}
	return &IssueRefundResult{PaymentID: string(p.ID), Refunded: p.Amount.Neg().Amount}, nil
}

// TransferCreditCommand moves overpaid money from one booking onto another
// booking of the same client instead of paying it out.
type TransferCreditCommand struct {
	DebitPaymentID  string
	CreditPaymentID string
	SourceBookingID string
	TargetBookingID string
	Amount          int64
	Currency        string
	AdminID         string
}

func (c TransferCreditCommand) Key() string { return transferCreditKey }

type TransferCreditResult struct {
	Moved               int64  `json:"moved"`
	TargetBookingStatus string `json:"target_booking_status"`
}

type TransferCreditHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *TransferCreditHandler) Handle(ctx context.Context, cmd TransferCreditCommand) (*TransferCreditResult, error) {
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

func (h *TransferCreditHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd TransferCreditCommand) (*TransferCreditResult, error) {
	source, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.SourceBookingID))
	if err != nil {
		return nil, err
	}
	target, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.TargetBookingID))
	if err != nil {
		return nil, err
	}
	sourceRemaining, err := support.RemainingFor(ctx, unit, source)
	if err != nil {
		return nil, err
	}

	var amount *money.Money
	if cmd.Amount > 0 {
		currency := cmd.Currency
		if currency == "" {
			currency = source.Pricing.Total.Currency
		}
		m, err := money.New(cmd.Amount, currency)
		if err != nil {
			return nil, err
		}
		amount = &m
	}

	now := time.Now()
	debit, credit, err := domainpayments.Transfer(
		domainpayments.PaymentID(cmd.DebitPaymentID),
		domainpayments.PaymentID(cmd.CreditPaymentID),
		source, target, sourceRemaining, amount, cmd.AdminID, now,
	)
	if err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, debit); err != nil {
		return nil, err
	}
	if err := unit.Payments().Save(ctx, credit); err != nil {
		return nil, err
	}

	// The credit may settle the target booking outright.
	targetPaid, err := support.PaidFor(ctx, unit, target)
	if err != nil {
		return nil, err
	}
	if target.AdvancePaid(targetPaid, now) {
		if err := unit.Bookings().Save(ctx, target); err != nil {
			return nil, err
		}
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, debit, target); err != nil {
		return nil, err
	}
	return &TransferCreditResult{Moved: credit.Amount.Amount, TargetBookingStatus: string(target.Status)}, nil
}

// ConvertOverpaymentCommand writes the remaining credit off as revenue, by
// agreement with the client. Mutually exclusive with refunding it.
type ConvertOverpaymentCommand struct {
	BookingID string
	Comment   string
}

func (c ConvertOverpaymentCommand) Key() string { return convertOverpaymentKey }

type ConvertOverpaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ConvertOverpaymentHandler) Handle(ctx context.Context, cmd ConvertOverpaymentCommand) (struct{}, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	return struct{}{}, finish(func() error {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
		if err != nil {
			return err
		}
		remaining, err := support.RemainingFor(ctx, unit, b)
		if err != nil {
			return err
		}
		if err := b.ConvertOverpayment(remaining, cmd.Comment, time.Now()); err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return err
		}
		return support.DrainEvents(ctx, h.Outbox, h.Encoder, b)
	}())
}

// EarlyCheckoutQuoteQuery prices an early departure without changing any
// state, for the administrator to preview the settlement.
type EarlyCheckoutQuoteQuery struct {
	BookingID      string
	ActualCheckOut time.Time
}

func (q EarlyCheckoutQuoteQuery) Key() string { return earlyCheckoutQuoteKey }

type EarlyCheckoutQuoteView struct {
	TotalUnits    int   `json:"total_units"`
	UnitsStayed   int   `json:"units_stayed"`
	UnitsUnused   int   `json:"units_unused"`
	PricePerUnit  int64 `json:"price_per_unit"`
	AmountForStay int64 `json:"amount_for_stay"`
	Refund        int64 `json:"refund"`
	AmountOwed    int64 `json:"amount_owed"`
}

type EarlyCheckoutQuoteHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *EarlyCheckoutQuoteHandler) Handle(ctx context.Context, q EarlyCheckoutQuoteQuery) (EarlyCheckoutQuoteView, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return EarlyCheckoutQuoteView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return EarlyCheckoutQuoteView{}, err
	}
	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return EarlyCheckoutQuoteView{}, err
	}
	paid, err := support.PaidFor(ctx, unit, b)
	if err != nil {
		return EarlyCheckoutQuoteView{}, err
	}

	quote, err := domainpayments.QuoteEarlyCheckout(b, paid, calendar.Day(q.ActualCheckOut), mode)
	if err != nil {
		return EarlyCheckoutQuoteView{}, err
	}
	return EarlyCheckoutQuoteView{
		TotalUnits:    quote.TotalUnits,
		UnitsStayed:   quote.UnitsStayed,
		UnitsUnused:   quote.UnitsUnused,
		PricePerUnit:  quote.PricePerUnit.Amount,
		AmountForStay: quote.AmountForStay.Amount,
		Refund:        quote.Refund.Amount,
		AmountOwed:    quote.AmountOwed.Amount,
	}, nil
}

var _ commands.Handler[IssueRefundCommand, *IssueRefundResult] = (*IssueRefundHandler)(nil)
var _ commands.Handler[TransferCreditCommand, *TransferCreditResult] = (*TransferCreditHandler)(nil)
var _ commands.Handler[ConvertOverpaymentCommand, struct{}] = (*ConvertOverpaymentHandler)(nil)
var _ queries.Handler[EarlyCheckoutQuoteQuery, EarlyCheckoutQuoteView] = (*EarlyCheckoutQuoteHandler)(nil)

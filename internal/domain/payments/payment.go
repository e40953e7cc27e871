package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/shared/events"
	"petstay/internal/domain/shared/money"
)

var (
	ErrPaymentNotFound = errors.New("payments: payment not found")
	ErrNotPending      = errors.New("payments: payment is not pending")
	ErrImmutable       = errors.New("payments: refunded and failed payments cannot change")
	ErrNonPositive     = errors.New("payments: amount must be positive")
)

type PaymentID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

type Type string

const (
	TypePrepayment  Type = "PREPAYMENT"
	TypeFullPayment Type = "FULL_PAYMENT"
	TypeRefund      Type = "REFUND"
)

type Method string

const (
	MethodCash     Method = "CASH"
	MethodCard     Method = "CARD"
	MethodTransfer Method = "BANK_TRANSFER"
)

// Payment belongs to exactly one booking, parent or child. Refund and
// transfer debits are regular records with negative amounts and the
// REFUNDED status, so the paid-amount fold needs no special cases.
type Payment struct {
	ID        PaymentID
	BookingID booking.BookingID
	Amount    money.Money
	Method    Method
	Status    Status
	Type      Type

	PrepaymentPercent int
	TransactionID     string
	ProofRef          string
	AdminComment      string

	ConfirmedAt *time.Time
	ConfirmedBy string

	CreatedAt time.Time
	UpdatedAt time.Time

	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id PaymentID) (*Payment, error)
	Save(ctx context.Context, p *Payment) error
	ByBooking(ctx context.Context, id booking.BookingID) ([]*Payment, error)
	DeleteByBooking(ctx context.Context, id booking.BookingID) error
}

// NewPending opens a client-submitted payment awaiting administrative review.
func NewPending(id PaymentID, bookingID booking.BookingID, amount money.Money, method Method, payType Type, now time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositive
	}
	ts := now.UTC()
	return &Payment{
		ID:        id,
		BookingID: bookingID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		Type:      payType,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// NewManual records a payment an administrator took outside the system;
// it is confirmed on creation.
func NewManual(id PaymentID, bookingID booking.BookingID, amount money.Money, method Method, payType Type, adminID string, now time.Time) (*Payment, error) {
	p, err := NewPending(id, bookingID, amount, method, payType, now)
	if err != nil {
		return nil, err
	}
	if err := p.Confirm(adminID, now); err != nil {
		return nil, err
	}
	return p, nil
}

// Confirm completes a pending payment.
func (p *Payment) Confirm(adminID string, now time.Time) error {
	if p.Status != StatusPending {
		return ErrNotPending
	}
	ts := now.UTC()
	p.Status = StatusCompleted
	p.ConfirmedAt = &ts
	p.ConfirmedBy = adminID
	p.UpdatedAt = ts
	p.Record(PaymentConfirmed{PaymentID: p.ID, BookingID: p.BookingID, Amount: p.Amount, At: ts})
	return nil
}

// Reject fails a pending payment. Only the administrative comment may
// change afterwards.
func (p *Payment) Reject(adminID, reason string, now time.Time) error {
	if p.Status != StatusPending {
		return ErrNotPending
	}
	ts := now.UTC()
	p.Status = StatusFailed
	p.ConfirmedBy = adminID
	p.AdminComment = reason
	p.UpdatedAt = ts
	p.Record(PaymentRejected{PaymentID: p.ID, BookingID: p.BookingID, Reason: reason, At: ts})
	return nil
}

// Annotate updates the administrative comment, which stays mutable in every
// status.
func (p *Payment) Annotate(comment string, now time.Time) {
	p.AdminComment = comment
	p.UpdatedAt = now.UTC()
}

// PaidAmount folds completed and refunded payments into the amount a booking
// is considered paid. The same fold serves plain bookings (own payments) and
// composite parents (own payments plus every child's), because refunds carry
// negative amounts. A payment in a currency other than the booking's makes
// the fold fail rather than vanish from the total.
func PaidAmount(currency string, paymentSets ...[]*Payment) (money.Money, error) {
	total := money.Zero(currency)
	for _, set := range paymentSets {
		for _, p := range set {
			if p.Status != StatusCompleted && p.Status != StatusRefunded {
				continue
			}
			sum, err := total.Add(p.Amount)
			if err != nil {
				return money.Money{}, fmt.Errorf("payments: fold %s into %s total: %w", p.ID, currency, err)
			}
			total = sum
		}
	}
	return total, nil
}

// Remaining is totalPrice minus paid; negative values are overpayments.
func Remaining(total money.Money, paid money.Money) (money.Money, error) {
	return total.Sub(paid)
}

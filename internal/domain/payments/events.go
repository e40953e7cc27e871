package payments

import (
	"time"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/shared/money"
)

type PaymentConfirmed struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	Amount    money.Money
	At        time.Time
}

func (e PaymentConfirmed) EventName() string     { return "payment.confirmed" }
func (e PaymentConfirmed) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentConfirmed) OccurredAt() time.Time { return e.At }

type PaymentRejected struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	Reason    string
	At        time.Time
}

func (e PaymentRejected) EventName() string     { return "payment.rejected" }
func (e PaymentRejected) AggregateID() string   { return string(e.PaymentID) }
func (e PaymentRejected) OccurredAt() time.Time { return e.At }

type RefundIssued struct {
	PaymentID PaymentID
	BookingID booking.BookingID
	Amount    money.Money
	At        time.Time
}

func (e RefundIssued) EventName() string     { return "payment.refund_issued" }
func (e RefundIssued) AggregateID() string   { return string(e.PaymentID) }
func (e RefundIssued) OccurredAt() time.Time { return e.At }

type PaymentTransferred struct {
	SourceBookingID booking.BookingID
	TargetBookingID booking.BookingID
	Amount          money.Money
	At              time.Time
}

func (e PaymentTransferred) EventName() string     { return "payment.transferred" }
func (e PaymentTransferred) AggregateID() string   { return string(e.SourceBookingID) }
func (e PaymentTransferred) OccurredAt() time.Time { return e.At }

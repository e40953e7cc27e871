package payments

import (
	"errors"
	"time"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/calendar"
	"petstay/internal/domain/shared/money"
)

var (
	ErrNotEarly             = errors.New("payments: actual checkout is not before the scheduled date")
	ErrCompositeSettlement  = errors.New("payments: early checkout cannot be settled on a composite parent")
	ErrUnbalancedSettlement = errors.New("payments: settlement does not balance within rounding tolerance")
	ErrRefundNotAllowed     = errors.New("payments: booking is not eligible for a refund")
	ErrNothingToRefund      = errors.New("payments: no overpayment and no custom amount to refund")
	ErrOverpaymentConverted = errors.New("payments: overpayment was converted to revenue")
	ErrTransferCrossClient  = errors.New("payments: bookings belong to different clients")
	ErrTransferExceedsCredit = errors.New("payments: amount exceeds the source booking's credit")
)

// EarlyCheckoutQuote is the settlement for a stay that ends before its
// scheduled check-out date.
type EarlyCheckoutQuote struct {
	TotalUnits    int
	UnitsStayed   int
	UnitsUnused   int
	PricePerUnit  money.Money
	AmountForStay money.Money
	// Refund is zero-floored: when the paid amount does not even cover the
	// stayed units the difference is owed, not refunded.
	Refund     money.Money
	AmountOwed money.Money
}

// QuoteEarlyCheckout prices the stayed part of the original range and
// derives the refundable credit. The per-unit price assumes a uniform rate
// across the stay, which never holds for composite parents whose segments
// price differently; those settle per segment and the parent is rejected.
func QuoteEarlyCheckout(b *booking.Booking, paid money.Money, actualOut time.Time, mode calendar.Mode) (EarlyCheckoutQuote, error) {
	if b.Kind == booking.KindCompositeParent {
		return EarlyCheckoutQuote{}, ErrCompositeSettlement
	}
	scheduledOut := b.CheckOut
	if b.EarlyCheckout && !b.OriginalCheckOut.IsZero() {
		scheduledOut = b.OriginalCheckOut
	}
	actualDay := calendar.Day(actualOut)
	if !actualDay.Before(calendar.Day(scheduledOut)) {
		return EarlyCheckoutQuote{}, ErrNotEarly
	}

	totalUnits, err := calendar.Units(b.CheckIn, scheduledOut, mode)
	if err != nil {
		return EarlyCheckoutQuote{}, err
	}
	stayed, err := calendar.Units(b.CheckIn, actualDay, mode)
	if err != nil {
		return EarlyCheckoutQuote{}, err
	}

	total := b.Pricing.Total
	perUnit, drift, err := total.DivideRound(int64(totalUnits))
	if err != nil {
		return EarlyCheckoutQuote{}, err
	}
	// Money must not leak through rounding: the rounded per-unit price has
	// to reconstruct the total within one minor unit per charged unit.
	if drift < 0 {
		drift = -drift
	}
	if drift > int64(totalUnits) {
		return EarlyCheckoutQuote{}, ErrUnbalancedSettlement
	}

	amountForStay := perUnit.Multiply(int64(stayed))
	refund, err := paid.Sub(amountForStay)
	if err != nil {
		return EarlyCheckoutQuote{}, err
	}
	owed := money.Zero(total.Currency)
	if refund.IsNegative() {
		owed = refund.Neg()
		refund = money.Zero(total.Currency)
	}
	return EarlyCheckoutQuote{
		TotalUnits:    totalUnits,
		UnitsStayed:   stayed,
		UnitsUnused:   totalUnits - stayed,
		PricePerUnit:  perUnit,
		AmountForStay: amountForStay,
		Refund:        refund,
		AmountOwed:    owed,
	}, nil
}

// NewRefund issues a refund against a closed booking. When no custom amount
// is supplied the full overpayment is refunded. The record is a REFUNDED
// payment with a negative amount so that paid totals drop accordingly.
func NewRefund(id PaymentID, b *booking.Booking, remaining money.Money, custom *money.Money, method Method, adminID, comment string, now time.Time) (*Payment, error) {
	if b.Status != booking.StatusCheckedOut && b.Status != booking.StatusCancelled {
		return nil, ErrRefundNotAllowed
	}
	if b.OverpaymentConverted {
		return nil, ErrOverpaymentConverted
	}

	var amount money.Money
	switch {
	case custom != nil:
		if custom.Currency != b.Pricing.Total.Currency {
			return nil, money.ErrCurrencyMismatch
		}
		amount = *custom
	case remaining.IsNegative():
		amount = remaining.Neg()
	default:
		return nil, ErrNothingToRefund
	}
	if !amount.IsPositive() {
		return nil, ErrNonPositive
	}

	ts := now.UTC()
	p := &Payment{
		ID:           id,
		BookingID:    b.ID,
		Amount:       amount.Neg(),
		Method:       method,
		Status:       StatusRefunded,
		Type:         TypeRefund,
		AdminComment: comment,
		ConfirmedAt:  &ts,
		ConfirmedBy:  adminID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	p.Record(RefundIssued{PaymentID: p.ID, BookingID: b.ID, Amount: amount, At: ts})
	return p, nil
}

// Transfer moves credit from an overpaid booking to another booking of the
// same client: a REFUNDED debit on the source and a completed payment on the
// target. The default amount is the full overpayment.
func Transfer(debitID, creditID PaymentID, source, target *booking.Booking, sourceRemaining money.Money, amount *money.Money, adminID string, now time.Time) (*Payment, *Payment, error) {
	if source.ClientID != target.ClientID {
		return nil, nil, ErrTransferCrossClient
	}
	if source.OverpaymentConverted {
		return nil, nil, ErrOverpaymentConverted
	}
	if !sourceRemaining.IsNegative() {
		return nil, nil, ErrTransferExceedsCredit
	}
	if source.Pricing.Total.Currency != target.Pricing.Total.Currency {
		return nil, nil, money.ErrCurrencyMismatch
	}
	credit := sourceRemaining.Neg()

	moved := credit
	if amount != nil {
		moved = *amount
	}
	if !moved.IsPositive() {
		return nil, nil, ErrNonPositive
	}
	if cmp, err := moved.Cmp(credit); err != nil || cmp > 0 {
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, ErrTransferExceedsCredit
	}

	ts := now.UTC()
	debit := &Payment{
		ID:           debitID,
		BookingID:    source.ID,
		Amount:       moved.Neg(),
		Method:       MethodTransfer,
		Status:       StatusRefunded,
		Type:         TypeRefund,
		AdminComment: "transfer to " + string(target.ID),
		ConfirmedAt:  &ts,
		ConfirmedBy:  adminID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	creditPayment := &Payment{
		ID:           creditID,
		BookingID:    target.ID,
		Amount:       moved,
		Method:       MethodTransfer,
		Status:       StatusCompleted,
		Type:         TypeFullPayment,
		AdminComment: "transfer from " + string(source.ID),
		ConfirmedAt:  &ts,
		ConfirmedBy:  adminID,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	debit.Record(PaymentTransferred{SourceBookingID: source.ID, TargetBookingID: target.ID, Amount: moved, At: ts})
	return debit, creditPayment, nil
}

package payments_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petstay/internal/domain/payments"
	"petstay/internal/domain/shared/money"
)

func TestNewPendingRejectsNonPositiveAmount(t *testing.T) {
	_, err := payments.NewPending("pay-1", "bk-1", money.Must(0, "USD"), payments.MethodCard, payments.TypePrepayment, time.Now())
	assert.ErrorIs(t, err, payments.ErrNonPositive)

	_, err = payments.NewPending("pay-1", "bk-1", money.Must(-100, "USD"), payments.MethodCard, payments.TypePrepayment, time.Now())
	assert.ErrorIs(t, err, payments.ErrNonPositive)
}

func TestConfirmCompletesPendingPayment(t *testing.T) {
	p, err := payments.NewPending("pay-1", "bk-1", money.Must(500, "USD"), payments.MethodCard, payments.TypeFullPayment, time.Now())
	require.NoError(t, err)
	require.Equal(t, payments.StatusPending, p.Status)

	require.NoError(t, p.Confirm("admin-1", time.Now()))
	assert.Equal(t, payments.StatusCompleted, p.Status)
	assert.Equal(t, "admin-1", p.ConfirmedBy)
	require.NotNil(t, p.ConfirmedAt)

	// A second confirmation is not a transition.
	assert.ErrorIs(t, p.Confirm("admin-2", time.Now()), payments.ErrNotPending)
}

func TestRejectFailsPendingPayment(t *testing.T) {
	p, err := payments.NewPending("pay-1", "bk-1", money.Must(500, "USD"), payments.MethodTransfer, payments.TypePrepayment, time.Now())
	require.NoError(t, err)

	require.NoError(t, p.Reject("admin-1", "proof unreadable", time.Now()))
	assert.Equal(t, payments.StatusFailed, p.Status)
	assert.Equal(t, "proof unreadable", p.AdminComment)

	assert.ErrorIs(t, p.Confirm("admin-1", time.Now()), payments.ErrNotPending)
	assert.ErrorIs(t, p.Reject("admin-1", "again", time.Now()), payments.ErrNotPending)
}

func TestNewManualIsConfirmedOnCreation(t *testing.T) {
	p, err := payments.NewManual("pay-1", "bk-1", money.Must(250, "USD"), payments.MethodCash, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, payments.StatusCompleted, p.Status)
	assert.Equal(t, "admin-1", p.ConfirmedBy)
}

func TestAnnotateStaysMutableAfterRejection(t *testing.T) {
	p, err := payments.NewPending("pay-1", "bk-1", money.Must(500, "USD"), payments.MethodCard, payments.TypeFullPayment, time.Now())
	require.NoError(t, err)
	require.NoError(t, p.Reject("admin-1", "no proof", time.Now()))

	p.Annotate("client re-sent proof, see pay-2", time.Now())
	assert.Equal(t, "client re-sent proof, see pay-2", p.AdminComment)
}

func TestPaidAmountFoldsCompletedAndRefunded(t *testing.T) {
	completed, err := payments.NewManual("pay-1", "bk-1", money.Must(700, "USD"), payments.MethodCard, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)
	pending, err := payments.NewPending("pay-2", "bk-1", money.Must(999, "USD"), payments.MethodCard, payments.TypeFullPayment, time.Now())
	require.NoError(t, err)
	refund := &payments.Payment{
		ID:        "pay-3",
		BookingID: "bk-1",
		Amount:    money.Must(-200, "USD"),
		Status:    payments.StatusRefunded,
		Type:      payments.TypeRefund,
	}

	paid, err := payments.PaidAmount("USD", []*payments.Payment{completed, pending, refund})
	require.NoError(t, err)
	assert.Equal(t, int64(500), paid.Amount)
}

func TestPaidAmountFailsOnForeignCurrency(t *testing.T) {
	usd, err := payments.NewManual("pay-1", "bk-1", money.Must(500, "USD"), payments.MethodCard, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)
	eur, err := payments.NewManual("pay-2", "bk-1", money.Must(500, "EUR"), payments.MethodCard, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)

	_, err = payments.PaidAmount("USD", []*payments.Payment{usd, eur})
	require.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestPaidAmountSpansPaymentSets(t *testing.T) {
	own, err := payments.NewManual("pay-1", "bk-parent", money.Must(100, "USD"), payments.MethodCash, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)
	childA, err := payments.NewManual("pay-2", "bk-seg-1", money.Must(300, "USD"), payments.MethodCard, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)
	childB, err := payments.NewManual("pay-3", "bk-seg-2", money.Must(400, "USD"), payments.MethodCard, payments.TypeFullPayment, "admin-1", time.Now())
	require.NoError(t, err)

	paid, err := payments.PaidAmount("USD",
		[]*payments.Payment{own},
		[]*payments.Payment{childA},
		[]*payments.Payment{childB},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(800), paid.Amount)
}

func TestRemainingSignConventions(t *testing.T) {
	total := money.Must(1000, "USD")

	underpaid, err := payments.Remaining(total, money.Must(400, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(600), underpaid.Amount)

	settled, err := payments.Remaining(total, money.Must(1000, "USD"))
	require.NoError(t, err)
	assert.True(t, settled.IsZero())

	overpaid, err := payments.Remaining(total, money.Must(1300, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(-300), overpaid.Amount)
}

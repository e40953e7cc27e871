package booking

import (
	"context"
	"errors"
	"time"

	"petstay/internal/domain/calendar"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/events"
	"petstay/internal/domain/shared/money"
)

var (
	ErrInvalidState        = errors.New("booking: invalid state transition")
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrNoPets              = errors.New("booking: at least one pet is required")
	ErrClientRequired      = errors.New("booking: client id required")
	ErrCompositeParentRoom = errors.New("booking: composite parent never occupies a room")
	ErrAlreadyConverted    = errors.New("booking: overpayment already converted to revenue")
	ErrNothingToConvert    = errors.New("booking: no overpayment to convert")
	ErrNotCheckedIn        = errors.New("booking: guest is not checked in")
)

type BookingID string

type Status string

const (
	StatusPending                   Status = "PENDING"
	StatusWaitingForPaymentApproval Status = "WAITING_FOR_PAYMENT_APPROVAL"
	StatusAwaitingPayment           Status = "AWAITING_PAYMENT"
	StatusPaymentPending            Status = "PAYMENT_PENDING"
	StatusConfirmed                 Status = "CONFIRMED"
	StatusCheckedIn                 Status = "CHECKED_IN"
	StatusCheckedOut                Status = "CHECKED_OUT"
	StatusCancelled                 Status = "CANCELLED"
)

// Terminal states accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// Kind distinguishes the three booking shapes. A composite parent holds
// ordered child segments and never occupies a room itself; a child occupies
// capacity for its own range in its own room type.
type Kind string

const (
	KindPlain           Kind = "PLAIN"
	KindCompositeParent Kind = "COMPOSITE_PARENT"
	KindCompositeChild  Kind = "COMPOSITE_CHILD"
)

// Pricing is the snapshot of a booking's price components. Totals are
// recomputed from the components, never stored independently of them.
type Pricing struct {
	Base            money.Money
	AdditionalPets  money.Money
	Services        money.Money
	DiscountPercent int
	DiscountAmount  money.Money
	Total           money.Money
}

// Recalculate derives DiscountAmount from DiscountPercent when no explicit
// amount was supplied and refreshes Total.
func (p *Pricing) Recalculate() error {
	gross, err := p.Base.Add(p.AdditionalPets)
	if err != nil {
		return err
	}
	gross, err = gross.Add(p.Services)
	if err != nil {
		return err
	}
	if p.DiscountAmount.IsZero() && p.DiscountPercent > 0 {
		percent := p.DiscountPercent
		if percent > 100 {
			percent = 100
		}
		p.DiscountAmount = money.Money{
			Amount:   gross.Amount * int64(percent) / 100,
			Currency: gross.Currency,
		}
	}
	if p.DiscountAmount.Currency == "" {
		p.DiscountAmount = money.Zero(gross.Currency)
	}
	total, err := gross.Sub(p.DiscountAmount)
	if err != nil {
		return err
	}
	p.Total = total
	return nil
}

// Booking is the central aggregate of the engine.
type Booking struct {
	ID         BookingID
	ClientID   clients.ClientID
	RoomTypeID rooms.RoomTypeID
	RoomID     rooms.RoomID
	PetIDs     []clients.PetID
	Occupants  int

	CheckIn  time.Time
	CheckOut time.Time

	Status Status
	Kind   Kind

	// Composite wiring. ParentID and SegmentOrder are set only on children;
	// SegmentIDs only on parents, in segment order.
	ParentID     BookingID
	SegmentOrder int
	SegmentIDs   []BookingID

	Pricing Pricing

	PaymentApproved     bool
	PrepaymentCancelled bool
	RequiredPrepayment  money.Money

	EarlyCheckout    bool
	OriginalCheckOut time.Time

	OverpaymentConverted bool
	ConvertedAmount      money.Money
	ConversionComment    string

	SpecialRequests string

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64

	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	// Delete removes the booking record itself; the application layer owns
	// the cascade over segments and payments.
	Delete(ctx context.Context, id BookingID) error
	Children(ctx context.Context, parent BookingID) ([]*Booking, error)
	ListByClient(ctx context.Context, client clients.ClientID) ([]*Booking, error)
	// OverlapCandidatesByRoomType returns non-cancelled bookings of the type
	// that can occupy capacity, i.e. plain bookings and composite children
	// but never composite parents.
	OverlapCandidatesByRoomType(ctx context.Context, id rooms.RoomTypeID) ([]*Booking, error)
	OverlapCandidatesByRoom(ctx context.Context, id rooms.RoomID) ([]*Booking, error)
	HasActiveBookings(ctx context.Context) (bool, error)
}

// CreateParams collects everything needed to open a plain booking.
type CreateParams struct {
	ID              BookingID
	ClientID        clients.ClientID
	RoomTypeID      rooms.RoomTypeID
	PetIDs          []clients.PetID
	CheckIn         time.Time
	CheckOut        time.Time
	Mode            calendar.Mode
	RoomType        *rooms.RoomType
	Services        money.Money
	DiscountPercent int
	DiscountAmount  money.Money
	SpecialRequests string
	CreatedAt       time.Time
}

// New validates the stay, prices it off the room type snapshot and opens the
// booking in PENDING.
func New(params CreateParams) (*Booking, error) {
	if params.ClientID == "" {
		return nil, ErrClientRequired
	}
	if len(params.PetIDs) == 0 {
		return nil, ErrNoPets
	}
	units, err := calendar.ValidateStay(params.CheckIn, params.CheckOut, params.Mode)
	if err != nil {
		return nil, err
	}
	if params.RoomType == nil {
		return nil, rooms.ErrRoomTypeNotFound
	}
	if !params.RoomType.Active {
		return nil, rooms.ErrInactiveRoomType
	}

	pricing := Pricing{
		Base:            params.RoomType.UnitPrice.Multiply(int64(units)),
		AdditionalPets:  money.Zero(params.RoomType.UnitPrice.Currency),
		Services:        params.Services,
		DiscountPercent: params.DiscountPercent,
		DiscountAmount:  params.DiscountAmount,
	}
	if extra := len(params.PetIDs) - 1; extra > 0 {
		pricing.AdditionalPets = params.RoomType.ExtraOccupantPrice.Multiply(int64(extra) * int64(units))
	}
	if pricing.Services.Currency == "" {
		pricing.Services = money.Zero(pricing.Base.Currency)
	}
	if err := pricing.Recalculate(); err != nil {
		return nil, err
	}

	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:                 params.ID,
		ClientID:           params.ClientID,
		RoomTypeID:         params.RoomTypeID,
		PetIDs:             append([]clients.PetID(nil), params.PetIDs...),
		Occupants:          len(params.PetIDs),
		CheckIn:            calendar.Day(params.CheckIn),
		CheckOut:           calendar.Day(params.CheckOut),
		Status:             StatusPending,
		Kind:               KindPlain,
		Pricing:            pricing,
		RequiredPrepayment: money.Zero(pricing.Base.Currency),
		SpecialRequests:    params.SpecialRequests,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ClientID: b.ClientID, RoomTypeID: b.RoomTypeID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, Total: b.Pricing.Total, At: now})
	return b, nil
}

// RequireApproval parks the booking until an administrator signs off the
// payment conditions.
func (b *Booking) RequireApproval(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusWaitingForPaymentApproval
	b.touch(now)
	return nil
}

// ApprovePayment is the administrative gate that makes the booking payable,
// optionally fixing a required prepayment amount.
func (b *Booking) ApprovePayment(requiredPrepayment money.Money, now time.Time) error {
	if b.Status.Terminal() {
		return ErrInvalidState
	}
	b.PaymentApproved = true
	b.PrepaymentCancelled = false
	if !requiredPrepayment.IsZero() {
		b.RequiredPrepayment = requiredPrepayment
	}
	if b.Status == StatusWaitingForPaymentApproval {
		b.Status = StatusAwaitingPayment
	}
	b.touch(now)
	return nil
}

// CancelPrepayment withdraws the prepayment requirement.
func (b *Booking) CancelPrepayment(now time.Time) error {
	if b.Status.Terminal() {
		return ErrInvalidState
	}
	b.PrepaymentCancelled = true
	b.RequiredPrepayment = money.Zero(b.Pricing.Total.Currency)
	b.touch(now)
	return nil
}

// MarkPaymentPending records that a client-submitted payment awaits review.
func (b *Booking) MarkPaymentPending(now time.Time) error {
	if b.Status != StatusAwaitingPayment && b.Status != StatusWaitingForPaymentApproval && b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusPaymentPending
	b.touch(now)
	return nil
}

// Confirm moves the booking to CONFIRMED. Room validation happens in the
// application layer before this is called; the aggregate only owns status
// legality. A checked-in stay is also rejected: confirming it would move
// the status backwards.
func (b *Booking) Confirm(now time.Time) error {
	if b.Status.Terminal() || b.Status == StatusCheckedIn {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.touch(now)
	b.Record(BookingConfirmed{BookingID: b.ID, RoomID: b.RoomID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, Total: b.Pricing.Total, At: b.UpdatedAt})
	return nil
}

// AdvancePaid promotes a payable booking to CONFIRMED once the paid amount
// covers the required prepayment (or the full total when none is set).
// Returns true when a promotion happened.
func (b *Booking) AdvancePaid(paid money.Money, now time.Time) bool {
	if b.Status != StatusAwaitingPayment && b.Status != StatusPaymentPending {
		return false
	}
	threshold := b.Pricing.Total
	if !b.PrepaymentCancelled && b.RequiredPrepayment.IsPositive() {
		threshold = b.RequiredPrepayment
	}
	cmp, err := paid.Cmp(threshold)
	if err != nil || cmp < 0 {
		return false
	}
	b.Status = StatusConfirmed
	b.touch(now)
	b.Record(BookingConfirmed{BookingID: b.ID, RoomID: b.RoomID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, Total: b.Pricing.Total, At: b.UpdatedAt})
	return true
}

// MarkCheckedIn is legal only from CONFIRMED. Arrival before the check-in
// date is an administrative override and intentionally not rejected here.
func (b *Booking) MarkCheckedIn(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	b.Status = StatusCheckedIn
	b.touch(now)
	b.Record(GuestCheckedIn{BookingID: b.ID, RoomID: b.RoomID, At: b.UpdatedAt})
	return nil
}

// MarkCheckedOut closes the stay. A departure before the scheduled check-out
// date marks the booking as an early checkout and preserves the original
// date; the caller settles the difference through the payment reconciler
// first.
func (b *Booking) MarkCheckedOut(actual time.Time, now time.Time) error {
	if b.Status != StatusCheckedIn {
		return ErrNotCheckedIn
	}
	actualDay := calendar.Day(actual)
	if actualDay.Before(calendar.Day(b.CheckIn)) {
		return ErrInvalidState
	}
	if actualDay.Before(calendar.Day(b.CheckOut)) {
		b.EarlyCheckout = true
		b.OriginalCheckOut = b.CheckOut
		b.CheckOut = actualDay
	}
	b.Status = StatusCheckedOut
	b.touch(now)
	b.Record(GuestCheckedOut{BookingID: b.ID, RoomID: b.RoomID, Early: b.EarlyCheckout, At: b.UpdatedAt})
	return nil
}

// Cancel releases the booking from any non-terminal state. Capacity frees
// implicitly because overlap queries skip cancelled bookings; refunds are a
// separate administrative request.
func (b *Booking) Cancel(reason string, now time.Time) error {
	if b.Status.Terminal() {
		return ErrInvalidState
	}
	b.Status = StatusCancelled
	b.RoomID = ""
	b.touch(now)
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// AssignRoom pins the booking to a physical room. Availability is validated
// by the caller against the then-current overlap set.
func (b *Booking) AssignRoom(roomID rooms.RoomID, now time.Time) error {
	if b.Kind == KindCompositeParent {
		return ErrCompositeParentRoom
	}
	if b.Status.Terminal() {
		return ErrInvalidState
	}
	b.RoomID = roomID
	b.touch(now)
	b.Record(RoomAssigned{BookingID: b.ID, RoomID: roomID, At: b.UpdatedAt})
	return nil
}

// UpdateDates moves the stay and reprices the base/additional components for
// the new unit count. Availability for the new range is the caller's check.
func (b *Booking) UpdateDates(checkIn, checkOut time.Time, mode calendar.Mode, roomType *rooms.RoomType, now time.Time) error {
	if b.Status.Terminal() {
		return ErrInvalidState
	}
	units, err := calendar.ValidateStay(checkIn, checkOut, mode)
	if err != nil {
		return err
	}
	b.CheckIn = calendar.Day(checkIn)
	b.CheckOut = calendar.Day(checkOut)
	if roomType != nil {
		b.Pricing.Base = roomType.UnitPrice.Multiply(int64(units))
		if extra := len(b.PetIDs) - 1; extra > 0 {
			b.Pricing.AdditionalPets = roomType.ExtraOccupantPrice.Multiply(int64(extra) * int64(units))
		} else {
			b.Pricing.AdditionalPets = money.Zero(b.Pricing.Base.Currency)
		}
		if err := b.Pricing.Recalculate(); err != nil {
			return err
		}
	}
	b.touch(now)
	b.Record(DatesUpdated{BookingID: b.ID, CheckIn: b.CheckIn, CheckOut: b.CheckOut, At: b.UpdatedAt})
	return nil
}

// ConvertOverpayment books the leftover credit as revenue. remaining is the
// booking's remaining amount computed from the then-current payment set and
// must be negative (an overpayment). This is mutually exclusive with any
// later refund or transfer.
func (b *Booking) ConvertOverpayment(remaining money.Money, comment string, now time.Time) error {
	if b.Status != StatusCheckedOut && b.Status != StatusCancelled {
		return ErrInvalidState
	}
	if b.OverpaymentConverted {
		return ErrAlreadyConverted
	}
	if !remaining.IsNegative() {
		return ErrNothingToConvert
	}
	b.OverpaymentConverted = true
	b.ConvertedAmount = remaining
	b.ConversionComment = comment
	b.touch(now)
	b.Record(OverpaymentConverted{BookingID: b.ID, Amount: remaining.Neg(), At: b.UpdatedAt})
	return nil
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

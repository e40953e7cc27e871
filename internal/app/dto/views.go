package dto

import (
	"time"

	"petstay/internal/domain/booking"
	"petstay/internal/domain/payments"
	"petstay/internal/domain/settings"
)

// Amount is a money value flattened for transport.
type Amount struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type BookingView struct {
	ID           string   `json:"id"`
	ClientID     string   `json:"client_id"`
	RoomTypeID   string   `json:"room_type_id"`
	RoomID       string   `json:"room_id,omitempty"`
	PetIDs       []string `json:"pet_ids"`
	Status       string   `json:"status"`
	Kind         string   `json:"kind"`
	ParentID     string   `json:"parent_id,omitempty"`
	SegmentOrder int      `json:"segment_order,omitempty"`
	SegmentIDs   []string `json:"segment_ids,omitempty"`

	CheckIn          time.Time  `json:"check_in"`
	CheckOut         time.Time  `json:"check_out"`
	EarlyCheckout    bool       `json:"early_checkout"`
	OriginalCheckOut *time.Time `json:"original_check_out,omitempty"`

	Total     Amount `json:"total"`
	Paid      Amount `json:"paid"`
	Remaining Amount `json:"remaining"`

	OverpaymentConverted bool   `json:"overpayment_converted"`
	SpecialRequests      string `json:"special_requests,omitempty"`
}

type PaymentView struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"booking_id"`
	Amount      Amount     `json:"amount"`
	Method      string     `json:"method"`
	Status      string     `json:"status"`
	Type        string     `json:"type"`
	ProofRef    string     `json:"proof_ref,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ConfirmedBy string     `json:"confirmed_by,omitempty"`
}

type SettingsView struct {
	Mode         string    `json:"mode"`
	CheckInTime  string    `json:"check_in_time"`
	CheckOutTime string    `json:"check_out_time"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func MapBooking(b *booking.Booking, paid, remaining Amount) BookingView {
	view := BookingView{
		ID:                   string(b.ID),
		ClientID:             string(b.ClientID),
		RoomTypeID:           string(b.RoomTypeID),
		RoomID:               string(b.RoomID),
		Status:               string(b.Status),
		Kind:                 string(b.Kind),
		ParentID:             string(b.ParentID),
		SegmentOrder:         b.SegmentOrder,
		CheckIn:              b.CheckIn,
		CheckOut:             b.CheckOut,
		EarlyCheckout:        b.EarlyCheckout,
		Total:                Amount{Amount: b.Pricing.Total.Amount, Currency: b.Pricing.Total.Currency},
		Paid:                 paid,
		Remaining:            remaining,
		OverpaymentConverted: b.OverpaymentConverted,
		SpecialRequests:      b.SpecialRequests,
	}
	for _, pet := range b.PetIDs {
		view.PetIDs = append(view.PetIDs, string(pet))
	}
	for _, seg := range b.SegmentIDs {
		view.SegmentIDs = append(view.SegmentIDs, string(seg))
	}
	if b.EarlyCheckout && !b.OriginalCheckOut.IsZero() {
		orig := b.OriginalCheckOut
		view.OriginalCheckOut = &orig
	}
	return view
}

func MapPayment(p *payments.Payment) PaymentView {
	return PaymentView{
		ID:          string(p.ID),
		BookingID:   string(p.BookingID),
		Amount:      Amount{Amount: p.Amount.Amount, Currency: p.Amount.Currency},
		Method:      string(p.Method),
		Status:      string(p.Status),
		Type:        string(p.Type),
		ProofRef:    p.ProofRef,
		ConfirmedAt: p.ConfirmedAt,
		ConfirmedBy: p.ConfirmedBy,
	}
}

func MapSettings(s *settings.Settings) SettingsView {
	return SettingsView{
		Mode:         string(s.Mode),
		CheckInTime:  s.CheckInTime,
		CheckOutTime: s.CheckOutTime,
		UpdatedAt:    s.UpdatedAt,
	}
}

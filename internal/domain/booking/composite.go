package booking

import (
	"errors"
	"sort"
	"time"

	"petstay/internal/domain/calendar"
	"petstay/internal/domain/clients"
	"petstay/internal/domain/shared/money"
)

var (
	ErrMergeTooFew          = errors.New("booking: merge needs at least two bookings")
	ErrMergeCrossClient     = errors.New("booking: merged bookings must belong to one client")
	ErrMergeNotPlain        = errors.New("booking: only plain bookings can become segments")
	ErrMergeTerminalSegment = errors.New("booking: cancelled or checked-out bookings cannot be merged")
	ErrSegmentsNotSequential = errors.New("booking: segments must be date-sequential without gaps or overlaps")
)

// Merge turns existing plain bookings of one client into a composite stay.
// The originals become ordered child segments; the new parent spans their
// combined range, carries the summed price and never occupies a room. The
// mode decides what "sequential" means at segment boundaries.
func Merge(parentID BookingID, parts []*Booking, mode calendar.Mode, now time.Time) (*Booking, error) {
	if len(parts) < 2 {
		return nil, ErrMergeTooFew
	}
	var client clients.ClientID
	for _, part := range parts {
		if part.Kind != KindPlain {
			return nil, ErrMergeNotPlain
		}
		if part.Status.Terminal() {
			return nil, ErrMergeTerminalSegment
		}
		if client == "" {
			client = part.ClientID
		} else if part.ClientID != client {
			return nil, ErrMergeCrossClient
		}
	}

	ordered := append([]*Booking(nil), parts...)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CheckIn.Before(ordered[j].CheckIn)
	})
	for i := 1; i < len(ordered); i++ {
		if !calendar.Sequential(ordered[i-1].CheckOut, ordered[i].CheckIn, mode) {
			return nil, ErrSegmentsNotSequential
		}
	}

	total := money.Zero(ordered[0].Pricing.Total.Currency)
	var pets []clients.PetID
	seen := map[clients.PetID]struct{}{}
	for _, part := range ordered {
		sum, err := total.Add(part.Pricing.Total)
		if err != nil {
			return nil, err
		}
		total = sum
		for _, pet := range part.PetIDs {
			if _, ok := seen[pet]; ok {
				continue
			}
			seen[pet] = struct{}{}
			pets = append(pets, pet)
		}
	}

	ts := now.UTC()
	parent := &Booking{
		ID:        parentID,
		ClientID:  client,
		PetIDs:    pets,
		Occupants: len(pets),
		CheckIn:   ordered[0].CheckIn,
		CheckOut:  ordered[len(ordered)-1].CheckOut,
		Status:    StatusPending,
		Kind:      KindCompositeParent,
		Pricing: Pricing{
			Base:           total,
			AdditionalPets: money.Zero(total.Currency),
			Services:       money.Zero(total.Currency),
			DiscountAmount: money.Zero(total.Currency),
			Total:          total,
		},
		RequiredPrepayment: money.Zero(total.Currency),
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
	for i, part := range ordered {
		part.Kind = KindCompositeChild
		part.ParentID = parentID
		part.SegmentOrder = i + 1
		part.touch(ts)
		parent.SegmentIDs = append(parent.SegmentIDs, part.ID)
	}
	parent.Record(BookingsMerged{ParentID: parentID, SegmentIDs: parent.SegmentIDs, At: ts})
	return parent, nil
}

package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidRange = errors.New("calendar: check-out date is before check-in date")
	ErrStayTooShort = errors.New("calendar: stay is shorter than the minimum for the mode")
	ErrUnknownMode  = errors.New("calendar: unknown calculation mode")
)

// Mode selects how a check-in/check-out pair is charged and compared.
//
// In Days mode both boundary dates are occupied: a 15th..17th stay spans
// three charged days and the room is busy on the 17th. In Nights mode the
// check-out day is released immediately, so the same stay spans two charged
// nights and a new check-in on the 17th is legal. The two conventions are
// not interchangeable at shared boundary dates, which is why every date
// comparison in the engine goes through this package.
type Mode string

const (
	ModeDays   Mode = "DAYS"
	ModeNights Mode = "NIGHTS"
)

// Minimum charged units for a valid stay per mode. The Days value of 2 is
// intentional: a same-day check-in/check-out pair counts one day, which is
// below a meaningful stay under inclusive counting. Keep these as explicit
// constants, not derived from each other.
const (
	MinimumUnitsDays   = 2
	MinimumUnitsNights = 1
)

func (m Mode) Valid() bool {
	return m == ModeDays || m == ModeNights
}

// MinimumUnits returns the smallest charged unit count for a valid stay.
func MinimumUnits(mode Mode) int {
	if mode == ModeDays {
		return MinimumUnitsDays
	}
	return MinimumUnitsNights
}

// Day truncates a timestamp to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Units converts a check-in/check-out pair into a charged unit count.
// Days mode counts both endpoints, Nights mode releases the check-out day.
func Units(checkIn, checkOut time.Time, mode Mode) (int, error) {
	if !mode.Valid() {
		return 0, ErrUnknownMode
	}
	in, out := Day(checkIn), Day(checkOut)
	if out.Before(in) {
		return 0, ErrInvalidRange
	}
	days := int(out.Sub(in).Hours() / 24)
	if mode == ModeDays {
		return days + 1, nil
	}
	return days, nil
}

// ValidateStay returns the unit count or fails when the stay is below the
// mode's minimum.
func ValidateStay(checkIn, checkOut time.Time, mode Mode) (int, error) {
	units, err := Units(checkIn, checkOut, mode)
	if err != nil {
		return 0, err
	}
	if units < MinimumUnits(mode) {
		return units, ErrStayTooShort
	}
	return units, nil
}

// Overlaps reports whether two stays compete for the same room dates.
// Days mode treats a shared boundary day as occupied by both stays;
// Nights mode hands the check-out day straight to the next arrival.
func Overlaps(aIn, aOut, bIn, bOut time.Time, mode Mode) bool {
	a1, a2 := Day(aIn), Day(aOut)
	b1, b2 := Day(bIn), Day(bOut)
	if mode == ModeDays {
		return !a1.After(b2) && !a2.Before(b1)
	}
	return a1.Before(b2) && a2.After(b1)
}

// Sequential reports whether a segment starting at nextCheckIn directly
// continues a segment ending at prevCheckOut, with no gap and no overlap.
// Days mode requires the next calendar day (the check-out day is still
// occupied); Nights mode also accepts the same day.
func Sequential(prevCheckOut, nextCheckIn time.Time, mode Mode) bool {
	out, in := Day(prevCheckOut), Day(nextCheckIn)
	nextDay := out.AddDate(0, 0, 1)
	if mode == ModeDays {
		return in.Equal(nextDay)
	}
	return in.Equal(out) || in.Equal(nextDay)
}

// PluralForm is the three-way split the unit labels follow: counts of one
// take the singular, two through four the paucal, zero and five plus the
// plural. The paucal form is distinct in the facility's locale; do not
// collapse this to an English singular/plural pair.
type PluralForm int

const (
	FormSingular PluralForm = iota
	FormPaucal
	FormPlural
)

func FormFor(count int) PluralForm {
	if count < 0 {
		count = -count
	}
	switch {
	case count == 1:
		return FormSingular
	case count >= 2 && count <= 4:
		return FormPaucal
	default:
		return FormPlural
	}
}

var unitForms = map[Mode][3]string{
	ModeDays:   {"day.one", "day.few", "day.many"},
	ModeNights: {"night.one", "night.few", "night.many"},
}

// UnitLabel returns the label key for the charged unit under the given count.
// Presentation resolves the key to localized text; the engine only owns the
// count-to-form mapping.
func UnitLabel(mode Mode, count int) string {
	forms, ok := unitForms[mode]
	if !ok {
		forms = unitForms[ModeNights]
	}
	return forms[FormFor(count)]
}

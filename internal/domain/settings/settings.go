package settings

import (
	"context"
	"errors"
	"time"

	"petstay/internal/domain/calendar"
)

var (
	ErrActiveBookings = errors.New("settings: cannot change while bookings are in progress")
	ErrInvalidMode    = errors.New("settings: unknown calculation mode")
	ErrNotFound       = errors.New("settings: not found")
)

// SingletonID is the permanent identity anchor of the one settings record.
// Storage adapters enforce uniqueness on it so a second record can never be
// created.
const SingletonID = "booking-settings"

// Settings is the facility-wide booking configuration. Exactly one instance
// exists per process and store.
type Settings struct {
	ID           string
	Mode         calendar.Mode
	CheckInTime  string
	CheckOutTime string
	UpdatedAt    time.Time
	Version      int64
}

// Default returns the settings used until an administrator changes them.
func Default() *Settings {
	return &Settings{
		ID:           SingletonID,
		Mode:         calendar.ModeNights,
		CheckInTime:  "15:00",
		CheckOutTime: "12:00",
	}
}

type Repository interface {
	// Get returns ErrNotFound when the singleton has not been stored yet.
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// ActiveBookingsChecker answers whether any booking is in a non-terminal
// state. Changing the calculation mode under active bookings would silently
// reinterpret their date ranges.
type ActiveBookingsChecker interface {
	HasActiveBookings(ctx context.Context) (bool, error)
}

// Service is the explicit accessor for the singleton: reads fall back to a
// lazily created default, writes go through the active-bookings guard.
type Service struct {
	repo  Repository
	guard ActiveBookingsChecker
}

func NewService(repo Repository, guard ActiveBookingsChecker) *Service {
	return &Service{repo: repo, guard: guard}
}

func (s *Service) Current(ctx context.Context) (*Settings, error) {
	current, err := s.repo.Get(ctx)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	def := Default()
	def.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (s *Service) Update(ctx context.Context, mode calendar.Mode, checkInTime, checkOutTime string, now time.Time) (*Settings, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	active, err := s.guard.HasActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveBookings
	}
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	current.Mode = mode
	if checkInTime != "" {
		current.CheckInTime = checkInTime
	}
	if checkOutTime != "" {
		current.CheckOutTime = checkOutTime
	}
	current.UpdatedAt = now.UTC()
	if err := s.repo.Save(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

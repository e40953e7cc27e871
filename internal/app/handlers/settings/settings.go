package settings

import (
	"context"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/dto"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/queries"
	"petstay/internal/app/uow"
	"petstay/internal/domain/calendar"
	domainsettings "petstay/internal/domain/settings"
)

const (
	getSettingsKey    = "settings.get"
	updateSettingsKey = "settings.update"
)

// GetSettingsQuery returns the facility configuration, creating the default
// record on first read.
type GetSettingsQuery struct{}

func (q GetSettingsQuery) Key() string { return getSettingsKey }

type GetSettingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetSettingsHandler) Handle(ctx context.Context, q GetSettingsQuery) (dto.SettingsView, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SettingsView{}, err
	}
	// Writable on purpose: the first read stores the default singleton.
	svc := domainsettings.NewService(unit.Settings(), unit.Bookings())
	current, err := svc.Current(ctx)
	if err := finish(err); err != nil {
		return dto.SettingsView{}, err
	}
	return dto.MapSettings(current), nil
}

// UpdateSettingsCommand changes the calculation mode and house times. It is
// rejected while any booking is in a non-terminal state.
type UpdateSettingsCommand struct {
	Mode         string
	CheckInTime  string
	CheckOutTime string
}

func (c UpdateSettingsCommand) Key() string { return updateSettingsKey }

type UpdateSettingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *UpdateSettingsHandler) Handle(ctx context.Context, cmd UpdateSettingsCommand) (dto.SettingsView, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.SettingsView{}, err
	}
	svc := domainsettings.NewService(unit.Settings(), unit.Bookings())
	updated, err := svc.Update(ctx, calendar.Mode(cmd.Mode), cmd.CheckInTime, cmd.CheckOutTime, time.Now())
	if err := finish(err); err != nil {
		return dto.SettingsView{}, err
	}
	return dto.MapSettings(updated), nil
}

var _ queries.Handler[GetSettingsQuery, dto.SettingsView] = (*GetSettingsHandler)(nil)
var _ commands.Handler[UpdateSettingsCommand, dto.SettingsView] = (*UpdateSettingsHandler)(nil)

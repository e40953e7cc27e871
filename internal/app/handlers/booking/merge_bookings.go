package booking

import (
	"context"
	"time"

	"petstay/internal/app/commands"
	"petstay/internal/app/handlers/support"
	"petstay/internal/app/middleware"
	"petstay/internal/app/outbox"
	"petstay/internal/app/uow"
	domainbooking "petstay/internal/domain/booking"
)

const mergeBookingsKey = "booking.merge"

// MergeBookingsCommand links existing bookings of one client into a single
// composite stay, e.g. consecutive segments in different room types.
type MergeBookingsCommand struct {
	ParentID        string
	BookingIDs      []string
	IdempotencyKeyV string
}

func (c MergeBookingsCommand) Key() string { return mergeBookingsKey }

func (c MergeBookingsCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c MergeBookingsCommand) ResultPrototype() any { return &MergeBookingsResult{} }

type MergeBookingsResult struct {
	ParentID   string   `json:"parent_id"`
	SegmentIDs []string `json:"segment_ids"`
	Total      int64    `json:"total"`
}

type MergeBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *MergeBookingsHandler) Handle(ctx context.Context, cmd MergeBookingsCommand) (*MergeBookingsResult, error) {
	unit, ctx, finish, err := support.BeginUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	res, err := h.execute(ctx, unit, cmd)
	if err := finish(err); err != nil {
		return nil, err
	}
	return res, nil
}

func (h *MergeBookingsHandler) execute(ctx context.Context, unit uow.UnitOfWork, cmd MergeBookingsCommand) (*MergeBookingsResult, error) {
	mode, err := support.CurrentMode(ctx, unit)
	if err != nil {
		return nil, err
	}

	parts := make([]*domainbooking.Booking, 0, len(cmd.BookingIDs))
	for _, id := range cmd.BookingIDs {
		b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
		if err != nil {
			return nil, err
		}
		parts = append(parts, b)
	}

	parent, err := domainbooking.Merge(domainbooking.BookingID(cmd.ParentID), parts, mode, time.Now())
	if err != nil {
		return nil, err
	}

	for _, part := range parts {
		if err := unit.Bookings().Save(ctx, part); err != nil {
			return nil, err
		}
	}
	if err := unit.Bookings().Save(ctx, parent); err != nil {
		return nil, err
	}
	if err := support.DrainEvents(ctx, h.Outbox, h.Encoder, parent); err != nil {
		return nil, err
	}

	res := &MergeBookingsResult{ParentID: string(parent.ID), Total: parent.Pricing.Total.Amount}
	for _, seg := range parent.SegmentIDs {
		res.SegmentIDs = append(res.SegmentIDs, string(seg))
	}
	return res, nil
}

var _ commands.Handler[MergeBookingsCommand, *MergeBookingsResult] = (*MergeBookingsHandler)(nil)
var _ middleware.IdempotentCommand = (*MergeBookingsCommand)(nil)

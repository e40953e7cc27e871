package rooms

import (
	"context"
	"errors"

	"petstay/internal/domain/shared/money"
)

var (
	ErrRoomTypeNotFound = errors.New("rooms: room type not found")
	ErrRoomNotFound     = errors.New("rooms: room not found")
	ErrInactiveRoomType = errors.New("rooms: room type is not active")
)

type RoomTypeID string

type RoomID string

// RoomType groups physical rooms that share capacity and pricing. Price
// edits do not touch bookings that already snapshot their totals.
type RoomType struct {
	ID                 RoomTypeID
	Name               string
	Capacity           int
	UnitPrice          money.Money
	ExtraOccupantPrice money.Money
	Active             bool
}

// Room is a single physical room inside a type.
type Room struct {
	ID         RoomID
	RoomTypeID RoomTypeID
	Name       string
	Active     bool
}

type Repository interface {
	RoomType(ctx context.Context, id RoomTypeID) (*RoomType, error)
	Room(ctx context.Context, id RoomID) (*Room, error)
	ActiveRooms(ctx context.Context, id RoomTypeID) ([]*Room, error)
	ActiveRoomCount(ctx context.Context, id RoomTypeID) (int, error)
	SaveRoomType(ctx context.Context, rt *RoomType) error
	SaveRoom(ctx context.Context, r *Room) error
}

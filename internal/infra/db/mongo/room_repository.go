package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrooms "petstay/internal/domain/rooms"
)

type RoomRepository struct {
	types *mongo.Collection
	rooms *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	rooms := db.Collection("rooms")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "room_type_id", Value: 1}, {Key: "active", Value: 1}}}
	_, _ = rooms.Indexes().CreateOne(context.Background(), idx)
	return &RoomRepository{
		types: db.Collection("room_types"),
		rooms: rooms,
	}
}

type roomTypeDocument struct {
	ID                 string        `bson:"_id"`
	Name               string        `bson:"name"`
	Capacity           int           `bson:"capacity"`
	UnitPrice          moneyDocument `bson:"unit_price"`
	ExtraOccupantPrice moneyDocument `bson:"extra_occupant_price"`
	Active             bool          `bson:"active"`
}

type roomDocument struct {
	ID         string `bson:"_id"`
	RoomTypeID string `bson:"room_type_id"`
	Name       string `bson:"name"`
	Active     bool   `bson:"active"`
}

func (r *RoomRepository) RoomType(ctx context.Context, id domainrooms.RoomTypeID) (*domainrooms.RoomType, error) {
	var doc roomTypeDocument
	if err := r.types.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrooms.ErrRoomTypeNotFound
		}
		return nil, err
	}
	return &domainrooms.RoomType{
		ID:                 domainrooms.RoomTypeID(doc.ID),
		Name:               doc.Name,
		Capacity:           doc.Capacity,
		UnitPrice:          doc.UnitPrice.toMoney(),
		ExtraOccupantPrice: doc.ExtraOccupantPrice.toMoney(),
		Active:             doc.Active,
	}, nil
}

func (r *RoomRepository) Room(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	var doc roomDocument
	if err := r.rooms.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrooms.ErrRoomNotFound
		}
		return nil, err
	}
	return &domainrooms.Room{
		ID:         domainrooms.RoomID(doc.ID),
		RoomTypeID: domainrooms.RoomTypeID(doc.RoomTypeID),
		Name:       doc.Name,
		Active:     doc.Active,
	}, nil
}

func (r *RoomRepository) ActiveRooms(ctx context.Context, id domainrooms.RoomTypeID) ([]*domainrooms.Room, error) {
	cursor, err := r.rooms.Find(ctx, bson.M{"room_type_id": string(id), "active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainrooms.Room
	for cursor.Next(ctx) {
		var doc roomDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, &domainrooms.Room{
			ID:         domainrooms.RoomID(doc.ID),
			RoomTypeID: domainrooms.RoomTypeID(doc.RoomTypeID),
			Name:       doc.Name,
			Active:     doc.Active,
		})
	}
	return out, cursor.Err()
}

func (r *RoomRepository) ActiveRoomCount(ctx context.Context, id domainrooms.RoomTypeID) (int, error) {
	count, err := r.rooms.CountDocuments(ctx, bson.M{"room_type_id": string(id), "active": true})
	return int(count), err
}

func (r *RoomRepository) SaveRoomType(ctx context.Context, rt *domainrooms.RoomType) error {
	doc := roomTypeDocument{
		ID:                 string(rt.ID),
		Name:               rt.Name,
		Capacity:           rt.Capacity,
		UnitPrice:          newMoneyDocument(rt.UnitPrice),
		ExtraOccupantPrice: newMoneyDocument(rt.ExtraOccupantPrice),
		Active:             rt.Active,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.types.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *RoomRepository) SaveRoom(ctx context.Context, room *domainrooms.Room) error {
	doc := roomDocument{
		ID:         string(room.ID),
		RoomTypeID: string(room.RoomTypeID),
		Name:       room.Name,
		Active:     room.Active,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.rooms.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

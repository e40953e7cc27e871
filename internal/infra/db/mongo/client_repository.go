package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainclients "petstay/internal/domain/clients"
)

type ClientRepository struct {
	clients *mongo.Collection
	pets    *mongo.Collection
}

func NewClientRepository(db *mongo.Database) *ClientRepository {
	pets := db.Collection("pets")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "owner_id", Value: 1}}}
	_, _ = pets.Indexes().CreateOne(context.Background(), idx)
	return &ClientRepository{
		clients: db.Collection("clients"),
		pets:    pets,
	}
}

type clientDocument struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Email string `bson:"email"`
	Phone string `bson:"phone"`
}

type petDocument struct {
	ID      string `bson:"_id"`
	OwnerID string `bson:"owner_id"`
	Name    string `bson:"name"`
	Species string `bson:"species"`
	Notes   string `bson:"notes,omitempty"`
}

func (r *ClientRepository) ByID(ctx context.Context, id domainclients.ClientID) (*domainclients.Client, error) {
	var doc clientDocument
	if err := r.clients.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainclients.ErrClientNotFound
		}
		return nil, err
	}
	return &domainclients.Client{
		ID:    domainclients.ClientID(doc.ID),
		Name:  doc.Name,
		Email: doc.Email,
		Phone: doc.Phone,
	}, nil
}

func (r *ClientRepository) Save(ctx context.Context, c *domainclients.Client) error {
	doc := clientDocument{ID: string(c.ID), Name: c.Name, Email: c.Email, Phone: c.Phone}
	opts := options.Replace().SetUpsert(true)
	_, err := r.clients.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *ClientRepository) Pets(ctx context.Context, owner domainclients.ClientID) ([]*domainclients.Pet, error) {
	cursor, err := r.pets.Find(ctx, bson.M{"owner_id": string(owner)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainclients.Pet
	for cursor.Next(ctx) {
		var doc petDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, &domainclients.Pet{
			ID:      domainclients.PetID(doc.ID),
			OwnerID: domainclients.ClientID(doc.OwnerID),
			Name:    doc.Name,
			Species: doc.Species,
			Notes:   doc.Notes,
		})
	}
	return out, cursor.Err()
}

func (r *ClientRepository) SavePet(ctx context.Context, p *domainclients.Pet) error {
	doc := petDocument{
		ID:      string(p.ID),
		OwnerID: string(p.OwnerID),
		Name:    p.Name,
		Species: p.Species,
		Notes:   p.Notes,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.pets.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

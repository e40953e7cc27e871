package clients

import (
	"context"
	"errors"
)

var ErrClientNotFound = errors.New("clients: client not found")

type ClientID string

type PetID string

type Client struct {
	ID    ClientID
	Name  string
	Email string
	Phone string
}

type Pet struct {
	ID      PetID
	OwnerID ClientID
	Name    string
	Species string
	Notes   string
}

type Repository interface {
	ByID(ctx context.Context, id ClientID) (*Client, error)
	Save(ctx context.Context, c *Client) error
	Pets(ctx context.Context, owner ClientID) ([]*Pet, error)
	SavePet(ctx context.Context, p *Pet) error
}

package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "petstay/internal/domain/booking"
	domainclients "petstay/internal/domain/clients"
	domainrooms "petstay/internal/domain/rooms"
	"petstay/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("agg_booking")
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "room_type_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), idx)
	return &BookingRepository{col: col}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) Delete(ctx context.Context, id domainbooking.BookingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainbooking.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepository) Children(ctx context.Context, parent domainbooking.BookingID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "segment_order", Value: 1}})
	return r.find(ctx, bson.M{"parent_id": string(parent)}, opts)
}

func (r *BookingRepository) ListByClient(ctx context.Context, client domainclients.ClientID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "check_in", Value: 1}})
	return r.find(ctx, bson.M{"client_id": string(client)}, opts)
}

func (r *BookingRepository) OverlapCandidatesByRoomType(ctx context.Context, id domainrooms.RoomTypeID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"room_type_id": string(id),
		"status":       bson.M{"$ne": string(domainbooking.StatusCancelled)},
		"kind":         bson.M{"$ne": string(domainbooking.KindCompositeParent)},
	}, nil)
}

func (r *BookingRepository) OverlapCandidatesByRoom(ctx context.Context, id domainrooms.RoomID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"room_id": string(id),
		"status":  bson.M{"$ne": string(domainbooking.StatusCancelled)},
		"kind":    bson.M{"$ne": string(domainbooking.KindCompositeParent)},
	}, nil)
}

func (r *BookingRepository) HasActiveBookings(ctx context.Context) (bool, error) {
	terminal := []string{string(domainbooking.StatusCheckedOut), string(domainbooking.StatusCancelled)}
	count, err := r.col.CountDocuments(ctx, bson.M{"status": bson.M{"$nin": terminal}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.col.Find(ctx, filter, opts)
	} else {
		cursor, err = r.col.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type moneyDocument struct {
	Amount   int64  `bson:"amount"`
	Currency string `bson:"currency"`
}

func newMoneyDocument(m money.Money) moneyDocument {
	return moneyDocument{Amount: m.Amount, Currency: m.Currency}
}

func (d moneyDocument) toMoney() money.Money {
	return money.Money{Amount: d.Amount, Currency: d.Currency}
}

type pricingDocument struct {
	Base            moneyDocument `bson:"base"`
	AdditionalPets  moneyDocument `bson:"additional_pets"`
	Services        moneyDocument `bson:"services"`
	DiscountPercent int           `bson:"discount_percent"`
	DiscountAmount  moneyDocument `bson:"discount_amount"`
	Total           moneyDocument `bson:"total"`
}

type bookingDocument struct {
	ID         string   `bson:"_id"`
	ClientID   string   `bson:"client_id"`
	RoomTypeID string   `bson:"room_type_id"`
	RoomID     string   `bson:"room_id,omitempty"`
	PetIDs     []string `bson:"pet_ids"`
	Occupants  int      `bson:"occupants"`

	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`

	Status string `bson:"status"`
	Kind   string `bson:"kind"`

	ParentID     string   `bson:"parent_id,omitempty"`
	SegmentOrder int      `bson:"segment_order,omitempty"`
	SegmentIDs   []string `bson:"segment_ids,omitempty"`

	Pricing pricingDocument `bson:"pricing"`

	PaymentApproved     bool          `bson:"payment_approved"`
	PrepaymentCancelled bool          `bson:"prepayment_cancelled"`
	RequiredPrepayment  moneyDocument `bson:"required_prepayment"`

	EarlyCheckout    bool  `bson:"early_checkout"`
	OriginalCheckOut int64 `bson:"original_check_out,omitempty"`

	OverpaymentConverted bool          `bson:"overpayment_converted"`
	ConvertedAmount      moneyDocument `bson:"converted_amount"`
	ConversionComment    string        `bson:"conversion_comment,omitempty"`

	SpecialRequests string `bson:"special_requests,omitempty"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
	Version   int64 `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	doc := bookingDocument{
		ID:         string(b.ID),
		ClientID:   string(b.ClientID),
		RoomTypeID: string(b.RoomTypeID),
		RoomID:     string(b.RoomID),
		Occupants:  b.Occupants,
		CheckIn:    b.CheckIn.UnixMilli(),
		CheckOut:   b.CheckOut.UnixMilli(),
		Status:     string(b.Status),
		Kind:       string(b.Kind),
		ParentID:   string(b.ParentID),
		SegmentOrder: b.SegmentOrder,
		Pricing: pricingDocument{
			Base:            newMoneyDocument(b.Pricing.Base),
			AdditionalPets:  newMoneyDocument(b.Pricing.AdditionalPets),
			Services:        newMoneyDocument(b.Pricing.Services),
			DiscountPercent: b.Pricing.DiscountPercent,
			DiscountAmount:  newMoneyDocument(b.Pricing.DiscountAmount),
			Total:           newMoneyDocument(b.Pricing.Total),
		},
		PaymentApproved:      b.PaymentApproved,
		PrepaymentCancelled:  b.PrepaymentCancelled,
		RequiredPrepayment:   newMoneyDocument(b.RequiredPrepayment),
		EarlyCheckout:        b.EarlyCheckout,
		OverpaymentConverted: b.OverpaymentConverted,
		ConvertedAmount:      newMoneyDocument(b.ConvertedAmount),
		ConversionComment:    b.ConversionComment,
		SpecialRequests:      b.SpecialRequests,
		CreatedAt:            b.CreatedAt.UnixMilli(),
		UpdatedAt:            b.UpdatedAt.UnixMilli(),
		Version:              b.Version,
	}
	for _, pet := range b.PetIDs {
		doc.PetIDs = append(doc.PetIDs, string(pet))
	}
	for _, seg := range b.SegmentIDs {
		doc.SegmentIDs = append(doc.SegmentIDs, string(seg))
	}
	if !b.OriginalCheckOut.IsZero() {
		doc.OriginalCheckOut = b.OriginalCheckOut.UnixMilli()
	}
	return doc
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	b := &domainbooking.Booking{
		ID:         domainbooking.BookingID(d.ID),
		ClientID:   domainclients.ClientID(d.ClientID),
		RoomTypeID: domainrooms.RoomTypeID(d.RoomTypeID),
		RoomID:     domainrooms.RoomID(d.RoomID),
		Occupants:  d.Occupants,
		CheckIn:    timestampToTime(d.CheckIn),
		CheckOut:   timestampToTime(d.CheckOut),
		Status:     domainbooking.Status(d.Status),
		Kind:       domainbooking.Kind(d.Kind),
		ParentID:   domainbooking.BookingID(d.ParentID),
		SegmentOrder: d.SegmentOrder,
		Pricing: domainbooking.Pricing{
			Base:            d.Pricing.Base.toMoney(),
			AdditionalPets:  d.Pricing.AdditionalPets.toMoney(),
			Services:        d.Pricing.Services.toMoney(),
			DiscountPercent: d.Pricing.DiscountPercent,
			DiscountAmount:  d.Pricing.DiscountAmount.toMoney(),
			Total:           d.Pricing.Total.toMoney(),
		},
		PaymentApproved:      d.PaymentApproved,
		PrepaymentCancelled:  d.PrepaymentCancelled,
		RequiredPrepayment:   d.RequiredPrepayment.toMoney(),
		EarlyCheckout:        d.EarlyCheckout,
		OverpaymentConverted: d.OverpaymentConverted,
		ConvertedAmount:      d.ConvertedAmount.toMoney(),
		ConversionComment:    d.ConversionComment,
		SpecialRequests:      d.SpecialRequests,
		CreatedAt:            timestampToTime(d.CreatedAt),
		UpdatedAt:            timestampToTime(d.UpdatedAt),
		Version:              d.Version,
	}
	for _, pet := range d.PetIDs {
		b.PetIDs = append(b.PetIDs, domainclients.PetID(pet))
	}
	for _, seg := range d.SegmentIDs {
		b.SegmentIDs = append(b.SegmentIDs, domainbooking.BookingID(seg))
	}
	if d.OriginalCheckOut != 0 {
		b.OriginalCheckOut = timestampToTime(d.OriginalCheckOut)
	}
	return b
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

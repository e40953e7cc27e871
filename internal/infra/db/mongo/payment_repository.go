package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "petstay/internal/domain/booking"
	domainpayments "petstay/internal/domain/payments"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	col := db.Collection("payments")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &PaymentRepository{col: col}
}

type paymentDocument struct {
	ID        string        `bson:"_id"`
	BookingID string        `bson:"booking_id"`
	Amount    moneyDocument `bson:"amount"`
	Method    string        `bson:"method"`
	Status    string        `bson:"status"`
	Type      string        `bson:"type"`

	PrepaymentPercent int    `bson:"prepayment_percent,omitempty"`
	TransactionID     string `bson:"transaction_id,omitempty"`
	ProofRef          string `bson:"proof_ref,omitempty"`
	AdminComment      string `bson:"admin_comment,omitempty"`

	ConfirmedAt int64  `bson:"confirmed_at,omitempty"`
	ConfirmedBy string `bson:"confirmed_by,omitempty"`

	CreatedAt int64 `bson:"created_at"`
	UpdatedAt int64 `bson:"updated_at"`
}

func newPaymentDocument(p *domainpayments.Payment) paymentDocument {
	doc := paymentDocument{
		ID:                string(p.ID),
		BookingID:         string(p.BookingID),
		Amount:            newMoneyDocument(p.Amount),
		Method:            string(p.Method),
		Status:            string(p.Status),
		Type:              string(p.Type),
		PrepaymentPercent: p.PrepaymentPercent,
		TransactionID:     p.TransactionID,
		ProofRef:          p.ProofRef,
		AdminComment:      p.AdminComment,
		ConfirmedBy:       p.ConfirmedBy,
		CreatedAt:         p.CreatedAt.UnixMilli(),
		UpdatedAt:         p.UpdatedAt.UnixMilli(),
	}
	if p.ConfirmedAt != nil {
		doc.ConfirmedAt = p.ConfirmedAt.UnixMilli()
	}
	return doc
}

func (d paymentDocument) toEntity() *domainpayments.Payment {
	p := &domainpayments.Payment{
		ID:                domainpayments.PaymentID(d.ID),
		BookingID:         domainbooking.BookingID(d.BookingID),
		Amount:            d.Amount.toMoney(),
		Method:            domainpayments.Method(d.Method),
		Status:            domainpayments.Status(d.Status),
		Type:              domainpayments.Type(d.Type),
		PrepaymentPercent: d.PrepaymentPercent,
		TransactionID:     d.TransactionID,
		ProofRef:          d.ProofRef,
		AdminComment:      d.AdminComment,
		ConfirmedBy:       d.ConfirmedBy,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
	}
	if d.ConfirmedAt != 0 {
		ts := timestampToTime(d.ConfirmedAt)
		p.ConfirmedAt = &ts
	}
	return p
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayments.PaymentID) (*domainpayments.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayments.ErrPaymentNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayments.Payment) error {
	doc := newPaymentDocument(p)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

func (r *PaymentRepository) ByBooking(ctx context.Context, id domainbooking.BookingID) ([]*domainpayments.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"booking_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainpayments.Payment
	for cursor.Next(ctx) {
		var doc paymentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

func (r *PaymentRepository) DeleteByBooking(ctx context.Context, id domainbooking.BookingID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"booking_id": string(id)})
	return err
}

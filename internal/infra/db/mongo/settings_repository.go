package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"petstay/internal/domain/calendar"
	domainsettings "petstay/internal/domain/settings"
)

type SettingsRepository struct {
	col *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	col := db.Collection("settings")
	// Uniqueness on the marker field keeps the singleton a singleton even if
	// two processes race the first write.
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "singleton", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &SettingsRepository{col: col}
}

type settingsDocument struct {
	ID           string `bson:"_id"`
	Singleton    bool   `bson:"singleton"`
	Mode         string `bson:"mode"`
	CheckInTime  string `bson:"check_in_time"`
	CheckOutTime string `bson:"check_out_time"`
	UpdatedAt    int64  `bson:"updated_at"`
	Version      int64  `bson:"version"`
}

func (r *SettingsRepository) Get(ctx context.Context) (*domainsettings.Settings, error) {
	var doc settingsDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": domainsettings.SingletonID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainsettings.ErrNotFound
		}
		return nil, err
	}
	return &domainsettings.Settings{
		ID:           doc.ID,
		Mode:         calendar.Mode(doc.Mode),
		CheckInTime:  doc.CheckInTime,
		CheckOutTime: doc.CheckOutTime,
		UpdatedAt:    timestampToTime(doc.UpdatedAt),
		Version:      doc.Version,
	}, nil
}

func (r *SettingsRepository) Save(ctx context.Context, s *domainsettings.Settings) error {
	doc := settingsDocument{
		ID:           domainsettings.SingletonID,
		Singleton:    true,
		Mode:         string(s.Mode),
		CheckInTime:  s.CheckInTime,
		CheckOutTime: s.CheckOutTime,
		UpdatedAt:    s.UpdatedAt.UnixMilli(),
		Version:      s.Version + 1,
	}
	filter := bson.M{"_id": domainsettings.SingletonID, "version": s.Version}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	s.ID = domainsettings.SingletonID
	s.Version = doc.Version
	return nil
}

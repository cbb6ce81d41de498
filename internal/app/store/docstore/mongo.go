package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// CollectionName is the MongoDB collection backing MongoStore.
const CollectionName = "documents"

// mongoDoc is the stored shape of one document.
type mongoDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	Revision  int64     `bson:"revision"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps documents in a MongoDB collection, one per key.
type MongoStore struct {
	c      *mongo.Collection
	logger *zap.Logger
}

// NewMongo creates a MongoStore on db.
func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{c: db.Collection(CollectionName)}
}

// WithLogger sets the logger used for transaction fallback warnings.
func (s *MongoStore) WithLogger(logger *zap.Logger) *MongoStore {
	s.logger = logger
	return s
}

// RunAtomic implements Atomic. On deployments without replica sets fn runs
// without a transaction.
func (s *MongoStore) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return txn.Run(ctx, s.c.Database(), s.logger, fn)
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, key string) (Document, error) {
	var d mongoDoc
	if err := s.c.FindOne(ctx, bson.M{"_id": key}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return Document{Value: []byte(d.Value), Revision: d.Revision}, nil
}

// Put implements Store. Revision 0 inserts; the unique _id turns a lost
// insert race into ErrRevisionMismatch. Any other revision updates only if
// the stored revision still matches.
func (s *MongoStore) Put(ctx context.Context, key string, value []byte, expected int64) (int64, error) {
	now := time.Now().UTC()
	if expected == 0 {
		_, err := s.c.InsertOne(ctx, mongoDoc{
			Key:       key,
			Value:     string(value),
			Revision:  1,
			UpdatedAt: now,
		})
		if err != nil {
			if isDuplicateKeyError(err) {
				return 0, ErrRevisionMismatch
			}
			return 0, err
		}
		return 1, nil
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": key, "revision": expected},
		bson.M{
			"$set": bson.M{"value": string(value), "updated_at": now},
			"$inc": bson.M{"revision": int64(1)},
		},
	)
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, ErrRevisionMismatch
	}
	return expected + 1, nil
}

// LastWrite returns the time of the most recent write to any document, or
// the zero time when the collection is empty. The descending updated_at
// index serves the sort.
func (s *MongoStore) LastWrite(ctx context.Context) (time.Time, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"updated_at": 1})
	var d mongoDoc
	if err := s.c.FindOne(ctx, bson.M{}, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return d.UpdatedAt, nil
}

// Ping implements Store.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

// isDuplicateKeyError checks if the error is a duplicate key error.
func isDuplicateKeyError(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

package history

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoDatabase = "challan_input"
	mongoCollection      = "challans"
)

type mongoRecord struct {
	ID     primitive.ObjectID `bson:"_id,omitempty"`
	Record `bson:",inline"`
}

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return NewMongoStore(client, database), nil
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(mongoCollection),
	}
}

func (s *MongoStore) Insert(ctx context.Context, record Record) error {
	_, err := s.collection.InsertOne(ctx, mongoRecord{Record: record})
	return err
}

func (s *MongoStore) DeleteByChallanNo(ctx context.Context, challanNo string) error {
	_, err := s.collection.DeleteOne(ctx, bson.M{"challan_no": challanNo})
	return err
}

func substring(value string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
}

func mongoQuery(filter Filter) bson.M {
	filter = filter.normalized()
	query := bson.M{}
	if filter.ChallanNo != "" {
		query["challan_no"] = substring(filter.ChallanNo)
	}
	if filter.LineNo != "" {
		query["line_no"] = substring(filter.LineNo)
	}
	if filter.Date != "" {
		query["date"] = substring(filter.Date)
	}
	if filter.BookingNo != "" {
		query["booking_no"] = substring(filter.BookingNo)
	}
	return query
}

func (s *MongoStore) Find(ctx context.Context, filter Filter, page, limit int) ([]Record, int64, error) {
	query := mongoQuery(filter)
	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	skip, size := pageBounds(page, limit)
	cursor, err := s.collection.Find(
		ctx,
		query,
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetSkip(int64(skip)).
			SetLimit(int64(size)),
	)
	if err != nil {
		return nil, 0, err
	}
	var docs []mongoRecord
	err = cursor.All(ctx, &docs)
	if err != nil {
		return nil, 0, err
	}

	out := make([]Record, len(docs))
	for i, d := range docs {
		out[i] = d.Record
		out[i].ID = d.ID.Hex()
	}
	return out, total, nil
}

func (s *MongoStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	if since.IsZero() {
		return s.collection.CountDocuments(ctx, bson.M{})
	}
	return s.collection.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

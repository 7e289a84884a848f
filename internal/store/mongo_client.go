package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoClient implements Client on top of a MongoDB database, one collection
// per logical collection name.
type MongoClient struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoClient connects to the configured MongoDB instance and verifies
// connectivity before returning.
func NewMongoClient(ctx context.Context, opts Options) (*MongoClient, error) {
	if opts.URI == "" {
		return nil, ErrMissingURI
	}

	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxConnections > 0 {
		clientOpts.SetMaxPoolSize(uint64(opts.MaxConnections))
	}

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping store: %w", err)
	}

	database := opts.Database
	if database == "" {
		database = "subxadmin"
	}

	return &MongoClient{
		client: client,
		db:     client.Database(database),
	}, nil
}

func (c *MongoClient) List(ctx context.Context, collection string) ([]RawRecord, error) {
	cursor, err := c.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	records := make([]RawRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, decodeDocument(doc))
	}
	return records, nil
}

func (c *MongoClient) Get(ctx context.Context, collection, id string) (RawRecord, error) {
	var doc bson.M
	err := c.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decodeDocument(doc), nil
}

func (c *MongoClient) Add(ctx context.Context, collection string, fields RawRecord) (string, error) {
	id := uuid.NewString()
	doc := bson.M{"_id": id}
	for k, v := range fields {
		doc[k] = v
	}
	if _, err := c.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}
	return id, nil
}

func (c *MongoClient) Update(ctx context.Context, collection, id string, fields RawRecord) error {
	result, err := c.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoClient) Increment(ctx context.Context, collection, id string, deltas map[string]float64) error {
	inc := bson.M{}
	for field, delta := range deltas {
		inc[field] = delta
	}
	result, err := c.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$inc": inc})
	if err != nil {
		return fmt.Errorf("increment %s/%s: %w", collection, id, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoClient) Delete(ctx context.Context, collection, id string) error {
	result, err := c.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *MongoClient) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// decodeDocument maps a decoded BSON document onto a RawRecord, flattening
// driver-specific types and surfacing _id under the IDField key.
func decodeDocument(doc bson.M) RawRecord {
	record := make(RawRecord, len(doc))
	for k, v := range doc {
		if k == "_id" {
			record[IDField] = decodeValue(v)
			continue
		}
		record[k] = decodeValue(v)
	}
	return record
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case bson.ObjectID:
		return val.Hex()
	case bson.DateTime:
		return val.Time().UTC()
	case bson.M:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = decodeValue(item)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, elem := range val {
			out[elem.Key] = decodeValue(elem.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = decodeValue(item)
		}
		return out
	case int32:
		return int64(val)
	default:
		return v
	}
}

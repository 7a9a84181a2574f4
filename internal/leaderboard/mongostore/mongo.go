// Package mongostore implements a MongoDB leaderboard row store. Each row
// is one document whose _id is the player uuid.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/statsmith/statsmith/internal/leaderboard"
)

// Compile-time check that Store implements leaderboard.RowStore.
var _ leaderboard.RowStore = (*Store)(nil)

// DefaultCollection is the collection rows are stored in.
const DefaultCollection = "players"

// Store is a MongoDB row store.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials uri and returns a store over database.collection. The
// store owns the client and disconnects it on Close.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// New returns a store over an existing collection. The caller keeps
// ownership of the client.
func New(collection *mongo.Collection) *Store {
	return &Store{collection: collection}
}

// Replace upserts row as a whole document, dropping any field the
// previous document had.
func (s *Store) Replace(ctx context.Context, row leaderboard.Row) error {
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": row.UUID}, row, opts); err != nil {
		return fmt.Errorf("replacing row: %w", err)
	}
	return nil
}

// All returns every row.
func (s *Store) All(ctx context.Context) ([]leaderboard.Row, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("finding rows: %w", err)
	}
	var rows []leaderboard.Row
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decoding rows: %w", err)
	}
	return rows, nil
}

// Count returns the number of rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return int(n), nil
}

// Close disconnects the client if the store owns it.
func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

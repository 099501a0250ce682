package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sitewatch/internal/logging"
)

// Collection names, one per document kind.
const (
	categoryCollection    = "category"
	websiteCollection     = "website"
	checkResultCollection = "checkresult"
)

// Mongo implements Store on top of a MongoDB database. The client is opened
// once at process start and shared by all requests; the driver handles
// connection pooling and concurrent use.
type Mongo struct {
	client       *mongo.Client
	database     *mongo.Database
	categories   *mongo.Collection
	websites     *mongo.Collection
	checkResults *mongo.Collection
	logger       logging.Logger
}

// NewMongo connects to the store, pings it, and returns a ready Mongo.
func NewMongo(ctx context.Context, uri, dbName string, logger logging.Logger) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("pinging store: %w", err)
	}

	db := client.Database(dbName)
	logger.Info("connected to store", logging.Field{Key: "database", Value: dbName})

	return &Mongo{
		client:       client,
		database:     db,
		categories:   db.Collection(categoryCollection),
		websites:     db.Collection(websiteCollection),
		checkResults: db.Collection(checkResultCollection),
		logger:       logger,
	}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) InsertCategory(ctx context.Context, c *Category) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := m.categories.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func (m *Mongo) ListCategories(ctx context.Context) ([]Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.categories.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Category
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}
	return out, nil
}

func (m *Mongo) CountCategories(ctx context.Context) (int64, error) {
	return m.categories.CountDocuments(ctx, bson.M{})
}

func (m *Mongo) InsertWebsite(ctx context.Context, w *Website) error {
	if w.ID.IsZero() {
		w.ID = primitive.NewObjectID()
	}
	if _, err := m.websites.InsertOne(ctx, w); err != nil {
		return fmt.Errorf("inserting website: %w", err)
	}
	return nil
}

func (m *Mongo) ListWebsites(ctx context.Context) ([]Website, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := m.websites.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing websites: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Website
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding websites: %w", err)
	}
	return out, nil
}

func (m *Mongo) GetWebsite(ctx context.Context, id string) (*Website, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var w Website
	err = m.websites.FindOne(ctx, bson.M{"_id": oid}).Decode(&w)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting website %s: %w", id, err)
	}
	return &w, nil
}

func (m *Mongo) CountWebsites(ctx context.Context) (int64, error) {
	return m.websites.CountDocuments(ctx, bson.M{})
}

func (m *Mongo) InsertCheckResult(ctx context.Context, r *CheckResult) error {
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()
	if _, err := m.checkResults.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("inserting check result: %w", err)
	}
	return nil
}

func (m *Mongo) ListCheckResults(ctx context.Context, websiteID string, limit int64) ([]CheckResult, error) {
	filter := bson.M{}
	if websiteID != "" {
		filter["website_id"] = websiteID
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := m.checkResults.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("listing check results: %w", err)
	}
	defer cursor.Close(ctx)

	var out []CheckResult
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding check results: %w", err)
	}
	return out, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) CollectionNames(ctx context.Context) ([]string, error) {
	return m.database.ListCollectionNames(ctx, bson.M{})
}

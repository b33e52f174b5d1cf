package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kavicki-com/gymapp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and pings it within timeout.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the owner indexes on every gym collection and the
// unique account indexes on users.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	owned := []string{ClientsCollection, EmployeesCollection, EquipmentCollection, PlansCollection, PaymentsCollection, MaintenanceCollection}
	for _, name := range owned {
		_, err := database.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "owner_id", Value: 1}},
		})
		if err != nil {
			return fmt.Errorf("create owner index on %s: %w", name, err)
		}
	}
	_, err := database.Collection(PaymentsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "client_id", Value: 1}, {Key: "paid_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create payment index: %w", err)
	}
	_, err = database.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "refresh_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Document constrains Store to pointer types of gym records.
type Document[T any] interface {
	*T
	models.Document
}

// Store implements OwnedCollection on a MongoDB collection.
type Store[T any, PT Document[T]] struct {
	Collection *mongo.Collection
	now        func() time.Time
}

// NewStore wraps a MongoDB collection.
func NewStore[T any, PT Document[T]](coll *mongo.Collection) *Store[T, PT] {
	return &Store[T, PT]{Collection: coll, now: time.Now}
}

func (s *Store[T, PT]) clock() time.Time {
	if s.now == nil {
		return time.Now().UTC()
	}
	return s.now().UTC()
}

func ownerFilter(ownerID string, oid primitive.ObjectID) bson.M {
	return bson.M{"_id": oid, "owner_id": ownerID}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

// Insert stamps the document with a new id, the owner and timestamps, then
// inserts it.
func (s *Store[T, PT]) Insert(ctx context.Context, ownerID string, doc *T) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	meta := PT(doc).Meta()
	if meta.ID.IsZero() {
		meta.ID = primitive.NewObjectID()
	}
	meta.OwnerID = ownerID
	meta.CreatedAt = s.clock()
	meta.UpdatedAt = meta.CreatedAt
	_, err := s.Collection.InsertOne(ctx, doc)
	return err
}

// FindByID finds a document by its id within the owner's rows.
func (s *Store[T, PT]) FindByID(ctx context.Context, ownerID, id string) (*T, error) {
	if s.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var out T
	err = s.Collection.FindOne(ctx, ownerFilter(ownerID, oid)).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

// Find queries the owner's documents. The owner condition overrides any
// owner_id key in filter.
func (s *Store[T, PT]) Find(ctx context.Context, ownerID string, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	scoped := bson.M{}
	for k, v := range filter {
		scoped[k] = v
	}
	scoped["owner_id"] = ownerID
	return s.find(ctx, scoped, opts...)
}

// FindAll queries documents across all owners.
func (s *Store[T, PT]) FindAll(ctx context.Context, filter bson.M) ([]T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	return s.find(ctx, filter)
}

func (s *Store[T, PT]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	if s.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := s.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the owner's document with the given id.
func (s *Store[T, PT]) Update(ctx context.Context, ownerID, id string, doc *T) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	meta := PT(doc).Meta()
	meta.ID = oid
	meta.OwnerID = ownerID
	meta.UpdatedAt = s.clock()

	result, err := s.Collection.ReplaceOne(ctx, ownerFilter(ownerID, oid), doc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes the owner's document with the given id.
func (s *Store[T, PT]) Delete(ctx context.Context, ownerID, id string) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	result, err := s.Collection.DeleteOne(ctx, ownerFilter(ownerID, oid))
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var (
	_ OwnedCollection[models.Client]            = (*Store[models.Client, *models.Client])(nil)
	_ OwnedCollection[models.Employee]          = (*Store[models.Employee, *models.Employee])(nil)
	_ OwnedCollection[models.Equipment]         = (*Store[models.Equipment, *models.Equipment])(nil)
	_ OwnedCollection[models.MaintenanceRecord] = (*Store[models.MaintenanceRecord, *models.MaintenanceRecord])(nil)
	_ OwnedCollection[models.Plan]              = (*Store[models.Plan, *models.Plan])(nil)
	_ OwnedCollection[models.Payment]           = (*Store[models.Payment, *models.Payment])(nil)
)

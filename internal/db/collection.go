package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no document matches the id and owner.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidID is returned for ids that are not valid ObjectID hex strings.
	ErrInvalidID = errors.New("invalid id")
)

// Collection names.
const (
	ClientsCollection     = "clients"
	EmployeesCollection   = "employees"
	EquipmentCollection   = "equipment"
	MaintenanceCollection = "maintenance"
	PlansCollection       = "plans"
	PaymentsCollection    = "payments"
	UsersCollection       = "users"
)

// OwnedCollection defines the operations on a collection whose rows belong to
// a gym profile. Every method except FindAll filters by ownerID.
type OwnedCollection[T any] interface {
	Insert(ctx context.Context, ownerID string, doc *T) error
	FindByID(ctx context.Context, ownerID, id string) (*T, error)
	Find(ctx context.Context, ownerID string, filter bson.M, opts ...*options.FindOptions) ([]T, error)
	Update(ctx context.Context, ownerID, id string, doc *T) error
	Delete(ctx context.Context, ownerID, id string) error
	// FindAll ignores ownership and is meant for background jobs.
	FindAll(ctx context.Context, filter bson.M) ([]T, error)
}

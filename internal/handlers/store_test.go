package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// memStore is an in-memory OwnedCollection. Find ignores the filter and
// records it in lastFilter instead.
type memStore[T any, PT db.Document[T]] struct {
	mu         sync.Mutex
	rows       []T
	lastFilter bson.M
	err        error
}

func newMemStore[T any, PT db.Document[T]]() *memStore[T, PT] {
	return &memStore[T, PT]{}
}

func (s *memStore[T, PT]) Insert(_ context.Context, ownerID string, doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	meta := PT(doc).Meta()
	if meta.ID.IsZero() {
		meta.ID = primitive.NewObjectID()
	}
	meta.OwnerID = ownerID
	meta.CreatedAt = time.Now()
	meta.UpdatedAt = meta.CreatedAt
	s.rows = append(s.rows, *doc)
	return nil
}

func (s *memStore[T, PT]) index(ownerID, id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return -1, db.ErrInvalidID
	}
	for i := range s.rows {
		meta := PT(&s.rows[i]).Meta()
		if meta.ID == oid && meta.OwnerID == ownerID {
			return i, nil
		}
	}
	return -1, db.ErrNotFound
}

func (s *memStore[T, PT]) FindByID(_ context.Context, ownerID, id string) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	i, err := s.index(ownerID, id)
	if err != nil {
		return nil, err
	}
	doc := s.rows[i]
	return &doc, nil
}

func (s *memStore[T, PT]) Find(_ context.Context, ownerID string, filter bson.M, _ ...*options.FindOptions) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.lastFilter = filter
	out := make([]T, 0)
	for i := range s.rows {
		if PT(&s.rows[i]).Meta().OwnerID == ownerID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *memStore[T, PT]) FindAll(_ context.Context, _ bson.M) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]T(nil), s.rows...), nil
}

func (s *memStore[T, PT]) Update(_ context.Context, ownerID, id string, doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	i, err := s.index(ownerID, id)
	if err != nil {
		return err
	}
	meta := PT(doc).Meta()
	meta.ID = PT(&s.rows[i]).Meta().ID
	meta.OwnerID = ownerID
	meta.UpdatedAt = time.Now()
	s.rows[i] = *doc
	return nil
}

func (s *memStore[T, PT]) Delete(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	i, err := s.index(ownerID, id)
	if err != nil {
		return err
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return nil
}

var (
	_ db.OwnedCollection[models.Client]    = (*memStore[models.Client, *models.Client])(nil)
	_ db.OwnedCollection[models.Equipment] = (*memStore[models.Equipment, *models.Equipment])(nil)
)

// failingUpdates wraps a collection whose updates always fail.
type failingUpdates[T any] struct {
	db.OwnedCollection[T]
	err error
}

func (f failingUpdates[T]) Update(context.Context, string, string, *T) error {
	return f.err
}

const testOwner = "64b7f0c2a1b2c3d4e5f60718"

func ownerClaims(role models.Role) *models.Claims {
	return &models.Claims{UserID: testOwner, OwnerID: testOwner, Username: "owner", Role: role}
}

// call invokes h with the caller's claims and an optional {id} path value.
func call(h http.HandlerFunc, req *http.Request, claims *models.Claims, id string) *httptest.ResponseRecorder {
	if id != "" {
		req.SetPathValue("id", id)
	}
	if claims != nil {
		req = withClaims(req, claims)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

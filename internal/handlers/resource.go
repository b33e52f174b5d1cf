package handlers

import (
	"net/http"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Resource serves the CRUD endpoints of one owned collection. Every operation
// is scoped to the caller's gym profile.
type Resource[T any, PT db.Document[T]] struct {
	Name  string
	Store db.OwnedCollection[T]
	Sort  bson.D
	// Filter builds the list query from the request; nil lists everything.
	Filter func(r *http.Request) bson.M
	// Keep drops listed rows after derivation, e.g. by maintenance tier.
	Keep func(r *http.Request, doc *T, now time.Time) bool
	// Present renders a row for the response; nil returns the row itself.
	Present func(doc *T, now time.Time) interface{}
	// Preserve copies server-managed fields from the stored row into an
	// update before it is written.
	Preserve func(existing, doc *T)
	Now     func() time.Time
}

func (h *Resource[T, PT]) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Resource[T, PT]) present(doc *T, now time.Time) interface{} {
	if h.Present == nil {
		return doc
	}
	return h.Present(doc, now)
}

// List returns the caller's rows.
func (h *Resource[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	var filter bson.M
	if h.Filter != nil {
		filter = h.Filter(r)
	}
	var opts []*options.FindOptions
	if len(h.Sort) > 0 {
		opts = append(opts, options.Find().SetSort(h.Sort))
	}

	docs, err := h.Store.Find(r.Context(), claims.OwnerID, filter, opts...)
	if err != nil {
		writeError(w, err, h.Name)
		return
	}

	now := h.now()
	out := make([]interface{}, 0, len(docs))
	for i := range docs {
		if h.Keep != nil && !h.Keep(r, &docs[i], now) {
			continue
		}
		out = append(out, h.present(&docs[i], now))
	}
	writeJSON(w, http.StatusOK, out)
}

// Get returns one row by id.
func (h *Resource[T, PT]) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	doc, err := h.Store.FindByID(r.Context(), claims.OwnerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err, h.Name)
		return
	}
	writeJSON(w, http.StatusOK, h.present(doc, h.now()))
}

// Create validates and inserts a new row.
func (h *Resource[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	doc := new(T)
	if !decodeBody(w, r, doc) {
		return
	}
	if err := PT(doc).Validate(); err != nil {
		writeError(w, err, h.Name)
		return
	}
	PT(doc).Meta().ID = primitive.NilObjectID
	if err := h.Store.Insert(r.Context(), claims.OwnerID, doc); err != nil {
		writeError(w, err, h.Name)
		return
	}
	writeJSON(w, http.StatusCreated, h.present(doc, h.now()))
}

// Update validates and replaces an existing row, keeping its creation time.
func (h *Resource[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	existing, err := h.Store.FindByID(r.Context(), claims.OwnerID, id)
	if err != nil {
		writeError(w, err, h.Name)
		return
	}

	doc := new(T)
	if !decodeBody(w, r, doc) {
		return
	}
	if err := PT(doc).Validate(); err != nil {
		writeError(w, err, h.Name)
		return
	}
	PT(doc).Meta().CreatedAt = PT(existing).Meta().CreatedAt
	if h.Preserve != nil {
		h.Preserve(existing, doc)
	}
	if err := h.Store.Update(r.Context(), claims.OwnerID, id, doc); err != nil {
		writeError(w, err, h.Name)
		return
	}
	writeJSON(w, http.StatusOK, h.present(doc, h.now()))
}

// Delete removes a row by id.
func (h *Resource[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), claims.OwnerID, r.PathValue("id")); err != nil {
		writeError(w, err, h.Name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

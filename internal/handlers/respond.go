package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/middleware"
	"github.com/Kavicki-com/gymapp/internal/models"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// decodeBody reads a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// ownerFrom returns the gym profile id of the authenticated caller.
func ownerFrom(w http.ResponseWriter, r *http.Request) (*models.Claims, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok || claims.OwnerID == "" {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, false
	}
	return claims, true
}

// writeError maps validation and store errors to HTTP responses.
func writeError(w http.ResponseWriter, err error, resource string) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, map[string]string{"field": ve.Field, "error": ve.Message})
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, resource+" not found", http.StatusNotFound)
	case errors.Is(err, db.ErrInvalidID):
		http.Error(w, "Invalid "+resource+" id", http.StatusBadRequest)
	default:
		log.WithError(err).WithField("resource", resource).Error("Store operation failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

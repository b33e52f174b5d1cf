package handlers

import (
	"net/http"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/Kavicki-com/gymapp/internal/status"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaintenanceHandler serves the maintenance log under /api/equipment/{id}/maintenance.
type MaintenanceHandler struct {
	Records   db.OwnedCollection[models.MaintenanceRecord]
	Equipment db.OwnedCollection[models.Equipment]
	Now       func() time.Time
}

// MaintenanceResult is returned after recording a maintenance.
type MaintenanceResult struct {
	Record    models.MaintenanceRecord `json:"record"`
	Equipment EquipmentView            `json:"equipment"`
}

func (h *MaintenanceHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// List returns the maintenance log of one equipment, newest first.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if _, err := h.Equipment.FindByID(r.Context(), claims.OwnerID, id); err != nil {
		writeError(w, err, "equipment")
		return
	}
	records, err := h.Records.Find(r.Context(), claims.OwnerID, bson.M{"equipment_id": id},
		options.Find().SetSort(bson.D{{Key: "service_date", Value: -1}}))
	if err != nil {
		writeError(w, err, "maintenance record")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Record logs a maintenance and moves the equipment's last maintenance date
// forward when the service is newer.
func (h *MaintenanceHandler) Record(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	now := h.now()

	var rec models.MaintenanceRecord
	if !decodeBody(w, r, &rec) {
		return
	}
	rec.EquipmentID = id
	if rec.ServiceDate == "" {
		rec.ServiceDate = now.Format("2006-01-02")
	}
	if err := rec.Validate(); err != nil {
		writeError(w, err, "maintenance record")
		return
	}

	equipment, err := h.Equipment.FindByID(r.Context(), claims.OwnerID, id)
	if err != nil {
		writeError(w, err, "equipment")
		return
	}
	rec.ID = primitive.NilObjectID
	if err := h.Records.Insert(r.Context(), claims.OwnerID, &rec); err != nil {
		writeError(w, err, "maintenance record")
		return
	}

	if newerThan(rec.ServiceDate, equipment.LastMaintenanceDate) {
		equipment.LastMaintenanceDate = rec.ServiceDate
		if err := h.Equipment.Update(r.Context(), claims.OwnerID, id, equipment); err != nil {
			writeError(w, err, "equipment")
			return
		}
	}

	log.WithFields(log.Fields{
		"equipment_id": id,
		"owner_id":     claims.OwnerID,
		"service_date": rec.ServiceDate,
	}).Info("Recorded maintenance")
	writeJSON(w, http.StatusCreated, MaintenanceResult{Record: rec, Equipment: NewEquipmentView(equipment, now)})
}

// newerThan reports whether date is after current. A missing or unreadable
// current date is always replaced.
func newerThan(date, current string) bool {
	cur, err := status.ParseDate(current)
	if err != nil {
		return true
	}
	d, err := status.ParseDate(date)
	return err == nil && d.After(cur)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/Kavicki-com/gymapp/internal/observability"
	"github.com/Kavicki-com/gymapp/internal/status"
	"go.mongodb.org/mongo-driver/bson"
)

// EquipmentView is an equipment row with its derived maintenance status.
type EquipmentView struct {
	models.Equipment
	MaintenanceStatus status.MaintenanceStatus `json:"maintenance_status"`
}

// NewEquipmentView derives the maintenance status of e at now.
func NewEquipmentView(e *models.Equipment, now time.Time) EquipmentView {
	ms := e.MaintenanceStatus(now)
	observability.RecordStatus("maintenance", string(ms.Tier))
	return EquipmentView{Equipment: *e, MaintenanceStatus: ms}
}

// NewEquipmentHandler creates the /api/equipment endpoints. Listing accepts
// ?status= for the operational status and ?tier= for the maintenance tier.
func NewEquipmentHandler(store db.OwnedCollection[models.Equipment]) *Resource[models.Equipment, *models.Equipment] {
	return &Resource[models.Equipment, *models.Equipment]{
		Name:  "equipment",
		Store: store,
		Sort:  bson.D{{Key: "name", Value: 1}},
		Filter: func(r *http.Request) bson.M {
			if s := r.URL.Query().Get("status"); s != "" {
				return bson.M{"status": s}
			}
			return nil
		},
		Keep: func(r *http.Request, e *models.Equipment, now time.Time) bool {
			tier := r.URL.Query().Get("tier")
			return tier == "" || string(e.MaintenanceStatus(now).Tier) == tier
		},
		Present: func(e *models.Equipment, now time.Time) interface{} {
			return NewEquipmentView(e, now)
		},
	}
}

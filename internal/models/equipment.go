package models

import (
	"strings"
	"time"

	"github.com/Kavicki-com/gymapp/internal/format"
	"github.com/Kavicki-com/gymapp/internal/status"
)

// Equipment represents a machine or accessory that needs periodic maintenance.
type Equipment struct {
	Base                    `bson:",inline"`
	Name                    string `bson:"name" json:"name"`
	Category                string `bson:"category" json:"category"` // "cardio", "strength", "free_weights", "accessory"
	Brand                   string `bson:"brand" json:"brand"`
	SerialNumber            string `bson:"serial_number" json:"serial_number"`
	PurchaseDate            string `bson:"purchase_date" json:"purchase_date"`
	LastMaintenanceDate     string `bson:"last_maintenance_date" json:"last_maintenance_date"` // YYYY-MM-DD
	MaintenanceIntervalDays int    `bson:"maintenance_interval_days" json:"maintenance_interval_days"`
	Status                  string `bson:"status" json:"status"` // "active", "maintenance", "inactive"
	Notes                   string `bson:"notes" json:"notes"`
}

// Validate checks the equipment fields and normalises dates to YYYY-MM-DD.
func (e *Equipment) Validate() error {
	e.Name = strings.TrimSpace(e.Name)
	if err := required("name", e.Name); err != nil {
		return err
	}
	if e.PurchaseDate != "" {
		d, err := format.ParseDate(e.PurchaseDate)
		if err != nil {
			return invalid("purchase_date", "must be DD/MM/YYYY or YYYY-MM-DD")
		}
		e.PurchaseDate = d
	}
	if e.LastMaintenanceDate != "" {
		d, err := format.ParseDate(e.LastMaintenanceDate)
		if err != nil {
			return invalid("last_maintenance_date", "must be DD/MM/YYYY or YYYY-MM-DD")
		}
		e.LastMaintenanceDate = d
	}
	if e.MaintenanceIntervalDays < 0 {
		return invalid("maintenance_interval_days", "must not be negative")
	}
	if e.Status == "" {
		e.Status = "active"
	}
	return oneOf("status", e.Status, "active", "maintenance", "inactive")
}

// MaintenanceStatus derives the maintenance status as of now.
func (e *Equipment) MaintenanceStatus(now time.Time) status.MaintenanceStatus {
	return status.ComputeMaintenanceStatus(e.LastMaintenanceDate, e.MaintenanceIntervalDays, now)
}

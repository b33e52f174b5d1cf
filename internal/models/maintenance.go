package models

import (
	"github.com/Kavicki-com/gymapp/internal/format"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaintenanceRecord represents a maintenance performed on a piece of equipment.
type MaintenanceRecord struct {
	Base        `bson:",inline"`
	EquipmentID string  `json:"equipment_id" bson:"equipment_id"`
	ServiceType string  `json:"service_type" bson:"service_type"` // "preventive", "corrective", "inspection"
	Description string  `json:"description" bson:"description"`
	ServiceDate string  `json:"service_date" bson:"service_date"` // YYYY-MM-DD
	Cost        float64 `json:"cost" bson:"cost"`                 // in BRL
	Technician  string  `json:"technician" bson:"technician"`
	Notes       string  `json:"notes" bson:"notes"`
}

// Validate checks the record and normalises the service date.
func (m *MaintenanceRecord) Validate() error {
	if _, err := primitive.ObjectIDFromHex(m.EquipmentID); err != nil {
		return invalid("equipment_id", "must be a valid id")
	}
	d, err := format.ParseDate(m.ServiceDate)
	if err != nil {
		return invalid("service_date", "must be DD/MM/YYYY or YYYY-MM-DD")
	}
	m.ServiceDate = d
	if m.Cost < 0 {
		return invalid("cost", "must not be negative")
	}
	if m.ServiceType == "" {
		m.ServiceType = "preventive"
	}
	return oneOf("service_type", m.ServiceType, "preventive", "corrective", "inspection")
}

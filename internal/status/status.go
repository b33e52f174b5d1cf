// Package status derives display statuses for equipment maintenance and
// client payments from stored dates. Every function is pure: the current time
// is always passed in by the caller.
package status

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Tier classifies how urgent a maintenance action is.
type Tier string

const (
	TierUnknown Tier = "unknown"
	TierOverdue Tier = "overdue"
	TierWarning Tier = "warning"
	TierOK      Tier = "ok"
	// TierInvalid marks a stored date that could not be parsed.
	TierInvalid Tier = "invalid"
)

// WarningWindowDays is the number of days before the due date at which a
// maintenance moves from ok to warning.
const WarningWindowDays = 15

const (
	LabelUnknown = "Indefinido"
	LabelOverdue = "Vencida"
	LabelOK      = "Em dia"
	LabelInvalid = "Data inválida"
)

// ErrInvalidDate is returned by ParseDate for strings in no accepted layout.
var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Color returns the display color class for the tier.
func (t Tier) Color() string {
	switch t {
	case TierOverdue:
		return "red"
	case TierWarning:
		return "amber"
	case TierOK:
		return "green"
	default:
		return "grey"
	}
}

// MaintenanceStatus is the derived maintenance state of a piece of equipment.
type MaintenanceStatus struct {
	Label         string     `json:"label"`
	Tier          Tier       `json:"tier"`
	Color         string     `json:"color"`
	DaysRemaining *int       `json:"days_remaining"`
	NextDue       *time.Time `json:"next_due,omitempty"`
}

// ParseDate parses a stored date. Date-only values are taken as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// ComputeMaintenanceStatus derives the maintenance status from the date of the
// last maintenance and the maintenance interval in days.
func ComputeMaintenanceStatus(lastDate string, intervalDays int, now time.Time) MaintenanceStatus {
	if strings.TrimSpace(lastDate) == "" || intervalDays <= 0 {
		return newMaintenanceStatus(TierUnknown, LabelUnknown)
	}
	last, err := ParseDate(lastDate)
	if err != nil {
		return newMaintenanceStatus(TierInvalid, LabelInvalid)
	}
	return MaintenanceStatusAt(last, intervalDays, now)
}

// MaintenanceStatusAt is ComputeMaintenanceStatus for an already parsed date.
// A zero last date counts as absent.
func MaintenanceStatusAt(last time.Time, intervalDays int, now time.Time) MaintenanceStatus {
	if last.IsZero() || intervalDays <= 0 {
		return newMaintenanceStatus(TierUnknown, LabelUnknown)
	}

	nextDue := last.AddDate(0, 0, intervalDays)
	days := int(math.Ceil(nextDue.Sub(now).Hours() / 24))

	var st MaintenanceStatus
	switch {
	case days < 0:
		st = newMaintenanceStatus(TierOverdue, LabelOverdue)
	case days <= WarningWindowDays:
		st = newMaintenanceStatus(TierWarning, fmt.Sprintf("Vence em %dd", days))
	default:
		st = newMaintenanceStatus(TierOK, LabelOK)
	}
	st.DaysRemaining = &days
	st.NextDue = &nextDue
	return st
}

func newMaintenanceStatus(tier Tier, label string) MaintenanceStatus {
	return MaintenanceStatus{Label: label, Tier: tier, Color: tier.Color()}
}

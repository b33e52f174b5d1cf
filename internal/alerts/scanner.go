// Package alerts periodically scans equipment and clients and publishes
// maintenance and payment alerts to a message broker.
package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/Kavicki-com/gymapp/internal/observability"
	"github.com/Kavicki-com/gymapp/internal/status"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

const (
	KindMaintenance = "maintenance"
	KindPayment     = "payment"
)

// Alert is the JSON payload published for an equipment or client.
type Alert struct {
	Kind          string      `json:"kind"`
	OwnerID       string      `json:"owner_id"`
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Tier          status.Tier `json:"tier,omitempty"`
	Label         string      `json:"label"`
	DaysRemaining *int        `json:"days_remaining,omitempty"`
	DaysLate      int         `json:"days_late,omitempty"`
	At            time.Time   `json:"at"`
}

// Scanner finds equipment needing maintenance and overdue clients.
type Scanner struct {
	Equipment db.OwnedCollection[models.Equipment]
	Clients   db.OwnedCollection[models.Client]
	Publisher Publisher
	TopicRoot string
	Interval  time.Duration
	Now       func() time.Time
}

func (s *Scanner) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Topic returns the topic an alert is published on:
// {root}/{owner}/equipment/{id}/maintenance or {root}/{owner}/clients/{id}/payment.
func (s *Scanner) Topic(a Alert) string {
	root := s.TopicRoot
	if root == "" {
		root = "gym"
	}
	if a.Kind == KindPayment {
		return fmt.Sprintf("%s/%s/clients/%s/payment", root, a.OwnerID, a.ID)
	}
	return fmt.Sprintf("%s/%s/equipment/%s/maintenance", root, a.OwnerID, a.ID)
}

// Run scans once immediately and then every Interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, err := s.ScanOnce(ctx); err != nil {
			log.WithError(err).WithField("published", n).Error("Alert scan finished with errors")
		} else {
			log.WithField("published", n).Info("Alert scan finished")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Collect computes the alerts due at now without publishing them.
func (s *Scanner) Collect(ctx context.Context, now time.Time) ([]Alert, error) {
	var alerts []Alert

	equipment, err := s.Equipment.FindAll(ctx, bson.M{"status": bson.M{"$ne": "inactive"}})
	if err != nil {
		return nil, fmt.Errorf("load equipment: %w", err)
	}
	for i := range equipment {
		e := &equipment[i]
		if e.Status == "inactive" {
			continue
		}
		ms := e.MaintenanceStatus(now)
		observability.RecordStatus(KindMaintenance, string(ms.Tier))
		switch ms.Tier {
		case status.TierOverdue, status.TierWarning, status.TierInvalid:
		default:
			continue
		}
		alerts = append(alerts, Alert{
			Kind:          KindMaintenance,
			OwnerID:       e.OwnerID,
			ID:            e.ID.Hex(),
			Name:          e.Name,
			Tier:          ms.Tier,
			Label:         ms.Label,
			DaysRemaining: ms.DaysRemaining,
			At:            now,
		})
	}

	clients, err := s.Clients.FindAll(ctx, bson.M{"active": true})
	if err != nil {
		return alerts, fmt.Errorf("load clients: %w", err)
	}
	for i := range clients {
		c := &clients[i]
		if !c.OwesPayment() {
			continue
		}
		a := Alert{
			Kind:    KindPayment,
			OwnerID: c.OwnerID,
			ID:      c.ID.Hex(),
			Name:    c.Name,
			Label:   "Pagamento pendente",
			At:      now,
		}
		if due, ok := c.PaymentDue(now); ok && !due.Covered {
			a.DaysLate = due.DaysLate
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// ScanOnce collects and publishes the current alerts, returning how many were
// delivered. A failed publish does not stop the remaining ones.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	now := s.now()
	alerts, err := s.Collect(ctx, now)
	errs := []error{err}

	published := 0
	for _, a := range alerts {
		payload, merr := json.Marshal(a)
		if merr != nil {
			errs = append(errs, merr)
			continue
		}
		perr := s.Publisher.Publish(ctx, s.Topic(a), payload)
		observability.RecordAlert(a.Kind, perr)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		published++
	}

	observability.RecordScan(now)
	return published, errors.Join(errs...)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/format"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/Kavicki-com/gymapp/internal/status"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the summary shown on the gym's home screen.
type Dashboard struct {
	Clients          int                 `json:"clients"`
	ActiveClients    int                 `json:"active_clients"`
	OverdueClients   int                 `json:"overdue_clients"`
	Equipment        int                 `json:"equipment"`
	EquipmentByTier  map[status.Tier]int `json:"equipment_by_tier"`
	Employees        int                 `json:"employees"`
	Plans            int                 `json:"plans"`
	Month            string              `json:"month"`
	MonthRevenue     float64             `json:"month_revenue"`
	MonthRevenueText string              `json:"month_revenue_formatted"`
}

// DashboardHandler serves /api/dashboard.
type DashboardHandler struct {
	Clients   db.OwnedCollection[models.Client]
	Equipment db.OwnedCollection[models.Equipment]
	Employees db.OwnedCollection[models.Employee]
	Plans     db.OwnedCollection[models.Plan]
	Payments  db.OwnedCollection[models.Payment]
	Now       func() time.Time
}

// Get computes the dashboard for the caller's gym.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	ctx := r.Context()
	owner := claims.OwnerID

	month := now.Format("2006-01")
	var (
		clients   []models.Client
		equipment []models.Equipment
		employees []models.Employee
		plans     []models.Plan
		payments  []models.Payment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clients, err = h.Clients.Find(gctx, owner, nil)
		return err
	})
	g.Go(func() (err error) {
		equipment, err = h.Equipment.Find(gctx, owner, nil)
		return err
	})
	g.Go(func() (err error) {
		employees, err = h.Employees.Find(gctx, owner, bson.M{"active": true})
		return err
	})
	g.Go(func() (err error) {
		plans, err = h.Plans.Find(gctx, owner, bson.M{"active": true})
		return err
	})
	g.Go(func() (err error) {
		payments, err = h.Payments.Find(gctx, owner, bson.M{"reference_month": month})
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, err, "dashboard")
		return
	}

	d := Dashboard{
		Clients:         len(clients),
		Equipment:       len(equipment),
		EquipmentByTier: map[status.Tier]int{},
		Employees:       len(employees),
		Plans:           len(plans),
		Month:           month,
	}
	for i := range clients {
		if clients[i].Active {
			d.ActiveClients++
		}
		if clients[i].OwesPayment() {
			d.OverdueClients++
		}
	}
	for i := range equipment {
		d.EquipmentByTier[equipment[i].MaintenanceStatus(now).Tier]++
	}
	for _, p := range payments {
		d.MonthRevenue += p.Amount
	}
	d.MonthRevenueText = format.FormatBRL(d.MonthRevenue)

	writeJSON(w, http.StatusOK, d)
}

package handlers

import (
	"net/http"

	"github.com/Kavicki-com/gymapp/internal/auth"
	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/middleware"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps holds the stores and services the API is built from.
type Deps struct {
	Auth        *auth.Service
	Users       db.UserCollection
	Clients     db.OwnedCollection[models.Client]
	Employees   db.OwnedCollection[models.Employee]
	Equipment   db.OwnedCollection[models.Equipment]
	Maintenance db.OwnedCollection[models.MaintenanceRecord]
	Plans       db.OwnedCollection[models.Plan]
	Payments    db.OwnedCollection[models.Payment]
	// Health reports whether the backing services are reachable; nil means healthy.
	Health func(r *http.Request) error
}

type crud interface {
	List(http.ResponseWriter, *http.Request)
	Get(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

// NewRouter builds the authenticated API handler.
func NewRouter(d Deps) http.Handler {
	mw := middleware.NewAuthMiddleware(d.Auth)
	mux := http.NewServeMux()

	allow := func(action string, h http.HandlerFunc) http.Handler {
		return mw.RequirePermission(action)(h)
	}
	mount := func(base string, h crud, view, manage string) {
		mux.Handle("GET "+base, allow(view, h.List))
		mux.Handle("POST "+base, allow(manage, h.Create))
		mux.Handle("GET "+base+"/{id}", allow(view, h.Get))
		mux.Handle("PUT "+base+"/{id}", allow(manage, h.Update))
		mux.Handle("DELETE "+base+"/{id}", allow(manage, h.Delete))
	}

	authHandler := NewAuthHandler(d.Auth, d.Users)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("PUT /api/auth/profile", authHandler.UpdateProfile)
	mux.HandleFunc("POST /api/auth/change-password", authHandler.ChangePassword)

	adminOnly := mw.RequireRole(models.RoleAdmin)
	mux.Handle("GET /api/staff", adminOnly(http.HandlerFunc(authHandler.ListStaff)))
	mux.Handle("POST /api/staff", adminOnly(allow(models.ActionManageUsers, authHandler.CreateStaff)))
	mux.Handle("DELETE /api/staff/{id}", adminOnly(allow(models.ActionDeleteUser, authHandler.DeleteStaff)))

	clients := NewClientHandler(d.Clients)
	mount("/api/clients", clients, models.ActionViewClients, models.ActionManageClients)
	mux.Handle("POST /api/clients/{id}/reset-payment", allow(models.ActionRecordPayment, clients.ResetPayment))

	mount("/api/employees", NewEmployeeHandler(d.Employees), models.ActionViewEmployees, models.ActionManageEmployees)
	mount("/api/equipment", NewEquipmentHandler(d.Equipment), models.ActionViewEquipment, models.ActionManageEquipment)
	maintenance := &MaintenanceHandler{Records: d.Maintenance, Equipment: d.Equipment}
	mux.Handle("GET /api/equipment/{id}/maintenance", allow(models.ActionViewEquipment, maintenance.List))
	mux.Handle("POST /api/equipment/{id}/maintenance", allow(models.ActionManageEquipment, maintenance.Record))
	mount("/api/plans", NewPlanHandler(d.Plans), models.ActionViewPlans, models.ActionManagePlans)
	mount("/api/payments", NewPaymentHandler(d.Payments, d.Clients), models.ActionViewPayments, models.ActionRecordPayment)

	dashboard := &DashboardHandler{
		Clients:   d.Clients,
		Equipment: d.Equipment,
		Employees: d.Employees,
		Plans:     d.Plans,
		Payments:  d.Payments,
	}
	mux.Handle("GET /api/dashboard", allow(models.ActionViewClients, dashboard.Get))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			if err := d.Health(r); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return mw.Authenticate(mux)
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/format"
	"github.com/Kavicki-com/gymapp/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// PlanView adds the display price to a plan.
type PlanView struct {
	models.Plan
	PriceFormatted string `json:"price_formatted"`
}

// NewPlanHandler creates the /api/plans endpoints.
func NewPlanHandler(store db.OwnedCollection[models.Plan]) *Resource[models.Plan, *models.Plan] {
	return &Resource[models.Plan, *models.Plan]{
		Name:  "plan",
		Store: store,
		Sort:  bson.D{{Key: "price", Value: 1}},
		Filter: func(r *http.Request) bson.M {
			if active, err := strconv.ParseBool(r.URL.Query().Get("active")); err == nil {
				return bson.M{"active": active}
			}
			return nil
		},
		Present: func(p *models.Plan, _ time.Time) interface{} {
			return PlanView{Plan: *p, PriceFormatted: format.FormatBRL(p.Price)}
		},
	}
}

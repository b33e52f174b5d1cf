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

// EmployeeView adds display formatting to an employee.
type EmployeeView struct {
	models.Employee
	CPFFormatted    string `json:"cpf_formatted,omitempty"`
	PhoneFormatted  string `json:"phone_formatted,omitempty"`
	SalaryFormatted string `json:"salary_formatted"`
}

// NewEmployeeHandler creates the /api/employees endpoints.
func NewEmployeeHandler(store db.OwnedCollection[models.Employee]) *Resource[models.Employee, *models.Employee] {
	return &Resource[models.Employee, *models.Employee]{
		Name:  "employee",
		Store: store,
		Sort:  bson.D{{Key: "name", Value: 1}},
		Filter: func(r *http.Request) bson.M {
			q := r.URL.Query()
			filter := bson.M{}
			if position := q.Get("position"); position != "" {
				filter["position"] = position
			}
			if active, err := strconv.ParseBool(q.Get("active")); err == nil {
				filter["active"] = active
			}
			return filter
		},
		Present: func(e *models.Employee, _ time.Time) interface{} {
			v := EmployeeView{Employee: *e, SalaryFormatted: format.FormatBRL(e.Salary)}
			if e.CPF != "" {
				v.CPFFormatted = format.MaskCPF(e.CPF)
			}
			if e.Phone != "" {
				v.PhoneFormatted = format.MaskPhone(e.Phone)
			}
			return v
		},
	}
}

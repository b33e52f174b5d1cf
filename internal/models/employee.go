package models

import (
	"strings"

	"github.com/Kavicki-com/gymapp/internal/format"
)

// Employee represents a member of the gym staff.
type Employee struct {
	Base     `bson:",inline"`
	Name     string  `bson:"name" json:"name"`
	CPF      string  `bson:"cpf" json:"cpf"`
	Email    string  `bson:"email" json:"email"`
	Phone    string  `bson:"phone" json:"phone"`
	Position string  `bson:"position" json:"position"` // "instructor", "receptionist", "manager", "cleaning"
	Salary   float64 `bson:"salary" json:"salary"`
	HireDate string  `bson:"hire_date" json:"hire_date"`
	Active   bool    `bson:"active" json:"active"`
}

func (e *Employee) Validate() error {
	e.Name = strings.TrimSpace(e.Name)
	if err := required("name", e.Name); err != nil {
		return err
	}
	if err := oneOf("position", e.Position, "instructor", "receptionist", "manager", "cleaning"); err != nil {
		return err
	}
	if e.CPF != "" {
		cpf, err := format.NormalizeCPF(e.CPF)
		if err != nil {
			return invalid("cpf", "is not a valid CPF")
		}
		e.CPF = cpf
	}
	if e.Phone != "" {
		phone, err := format.NormalizePhone(e.Phone)
		if err != nil {
			return invalid("phone", "must have 10 or 11 digits")
		}
		e.Phone = phone
	}
	if e.Email != "" && !validEmail(e.Email) {
		return invalid("email", "invalid email format")
	}
	if e.Salary < 0 {
		return invalid("salary", "must not be negative")
	}
	if e.HireDate != "" {
		d, err := format.ParseDate(e.HireDate)
		if err != nil {
			return invalid("hire_date", "must be DD/MM/YYYY or YYYY-MM-DD")
		}
		e.HireDate = d
	}
	return nil
}

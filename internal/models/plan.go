package models

import "strings"

// Plan represents a membership plan offered by the gym.
type Plan struct {
	Base           `bson:",inline"`
	Name           string  `bson:"name" json:"name"`
	Price          float64 `bson:"price" json:"price"` // in BRL
	DurationMonths int     `bson:"duration_months" json:"duration_months"`
	Description    string  `bson:"description" json:"description"`
	Active         bool    `bson:"active" json:"active"`
}

func (p *Plan) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if err := required("name", p.Name); err != nil {
		return err
	}
	if p.Price < 0 {
		return invalid("price", "must not be negative")
	}
	if p.DurationMonths == 0 {
		p.DurationMonths = 1
	}
	if p.DurationMonths < 0 {
		return invalid("duration_months", "must be positive")
	}
	return nil
}

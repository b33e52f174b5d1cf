package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment represents a membership payment made by a client.
type Payment struct {
	Base           `bson:",inline"`
	ClientID       string    `bson:"client_id" json:"client_id"`
	Amount         float64   `bson:"amount" json:"amount"` // in BRL
	PaidAt         time.Time `bson:"paid_at" json:"paid_at"`
	ReferenceMonth string    `bson:"reference_month" json:"reference_month"` // YYYY-MM
	Method         string    `bson:"method" json:"method"`                   // "cash", "pix", "credit_card", "debit_card", "transfer"
	Notes          string    `bson:"notes" json:"notes"`
}

func (p *Payment) Validate() error {
	if _, err := primitive.ObjectIDFromHex(p.ClientID); err != nil {
		return invalid("client_id", "must be a valid id")
	}
	if p.Amount <= 0 {
		return invalid("amount", "must be positive")
	}
	if p.ReferenceMonth != "" {
		if _, err := time.Parse("2006-01", p.ReferenceMonth); err != nil {
			return invalid("reference_month", "must be YYYY-MM")
		}
	}
	if p.Method == "" {
		p.Method = "cash"
	}
	return oneOf("method", p.Method, "cash", "pix", "credit_card", "debit_card", "transfer")
}

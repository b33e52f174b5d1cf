package models

import (
	"strings"
	"time"

	"github.com/Kavicki-com/gymapp/internal/format"
	"github.com/Kavicki-com/gymapp/internal/status"
)

const (
	PaymentStatusPaid    = status.PaymentPaid
	PaymentStatusPending = "pending"
)

// Client represents a gym member.
type Client struct {
	Base          `bson:",inline"`
	Name          string     `bson:"name" json:"name"`
	CPF           string     `bson:"cpf" json:"cpf"`
	Email         string     `bson:"email" json:"email"`
	Phone         string     `bson:"phone" json:"phone"`
	BirthDate     string     `bson:"birth_date" json:"birth_date"` // YYYY-MM-DD
	PlanID        string     `bson:"plan_id" json:"plan_id"`
	DueDay        int        `bson:"due_day" json:"due_day"`               // day of month, 0 when unset
	PaymentStatus string     `bson:"payment_status" json:"payment_status"` // "paid" or "pending"
	LastPaymentAt *time.Time `bson:"last_payment_at,omitempty" json:"last_payment_at,omitempty"`
	Active        bool       `bson:"active" json:"active"`
	PhotoURL      string     `bson:"photo_url" json:"photo_url"`
	Notes         string     `bson:"notes" json:"notes"`
}

// Validate checks the client fields and normalises masked input in place.
func (c *Client) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if err := required("name", c.Name); err != nil {
		return err
	}
	if c.CPF != "" {
		cpf, err := format.NormalizeCPF(c.CPF)
		if err != nil {
			return invalid("cpf", "is not a valid CPF")
		}
		c.CPF = cpf
	}
	if c.Phone != "" {
		phone, err := format.NormalizePhone(c.Phone)
		if err != nil {
			return invalid("phone", "must have 10 or 11 digits")
		}
		c.Phone = phone
	}
	if c.Email != "" && !validEmail(c.Email) {
		return invalid("email", "invalid email format")
	}
	if c.BirthDate != "" {
		d, err := format.ParseDate(c.BirthDate)
		if err != nil {
			return invalid("birth_date", "must be DD/MM/YYYY or YYYY-MM-DD")
		}
		c.BirthDate = d
	}
	if c.DueDay < 0 || c.DueDay > 31 {
		return invalid("due_day", "must be between 1 and 31")
	}
	if c.PaymentStatus == "" {
		c.PaymentStatus = PaymentStatusPending
	}
	return oneOf("payment_status", c.PaymentStatus, PaymentStatusPaid, PaymentStatusPending)
}

// IsOverdue reports the flag-based payment status.
func (c *Client) IsOverdue() bool {
	return status.ComputePaymentStatus(c.PaymentStatus)
}

// OwesPayment reports whether an active client is overdue. Inactive clients
// are not billed.
func (c *Client) OwesPayment() bool {
	return c.Active && c.IsOverdue()
}

// PaymentDue places the client in its monthly billing cycle. ok is false when
// the client has no due day.
func (c *Client) PaymentDue(now time.Time) (status.PaymentDue, bool) {
	var last time.Time
	if c.LastPaymentAt != nil {
		last = *c.LastPaymentAt
	}
	return status.ComputePaymentDue(c.DueDay, last, now)
}

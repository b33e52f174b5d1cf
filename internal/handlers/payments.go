package handlers

import (
	"net/http"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/format"
	"github.com/Kavicki-com/gymapp/internal/models"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentView adds the display amount to a payment.
type PaymentView struct {
	models.Payment
	AmountFormatted string `json:"amount_formatted"`
}

// PaymentHandler serves /api/payments. Recording a payment marks the client paid.
type PaymentHandler struct {
	*Resource[models.Payment, *models.Payment]
	Clients db.OwnedCollection[models.Client]
}

// NewPaymentHandler creates the payment endpoints.
func NewPaymentHandler(store db.OwnedCollection[models.Payment], clients db.OwnedCollection[models.Client]) *PaymentHandler {
	return &PaymentHandler{
		Resource: &Resource[models.Payment, *models.Payment]{
			Name:   "payment",
			Store:  store,
			Sort:   bson.D{{Key: "paid_at", Value: -1}},
			Filter: paymentFilter,
			Present: func(p *models.Payment, _ time.Time) interface{} {
				return PaymentView{Payment: *p, AmountFormatted: format.FormatBRL(p.Amount)}
			},
		},
		Clients: clients,
	}
}

// paymentFilter supports ?client_id= and ?month=YYYY-MM.
func paymentFilter(r *http.Request) bson.M {
	q := r.URL.Query()
	filter := bson.M{}
	if clientID := q.Get("client_id"); clientID != "" {
		filter["client_id"] = clientID
	}
	if month := q.Get("month"); month != "" {
		filter["reference_month"] = month
	}
	return filter
}

// Create records a payment and settles the client. When the client cannot be
// updated the payment is removed again.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	var payment models.Payment
	if !decodeBody(w, r, &payment) {
		return
	}
	if err := payment.Validate(); err != nil {
		writeError(w, err, h.Name)
		return
	}

	client, err := h.Clients.FindByID(r.Context(), claims.OwnerID, payment.ClientID)
	if err != nil {
		writeError(w, err, "client")
		return
	}

	now := h.now()
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}
	if payment.ReferenceMonth == "" {
		payment.ReferenceMonth = payment.PaidAt.Format("2006-01")
	}
	payment.ID = primitive.NilObjectID
	if err := h.Store.Insert(r.Context(), claims.OwnerID, &payment); err != nil {
		writeError(w, err, h.Name)
		return
	}

	if settle(client, payment.PaidAt, now) {
		if err := h.Clients.Update(r.Context(), claims.OwnerID, payment.ClientID, client); err != nil {
			log.WithError(err).WithField("client_id", payment.ClientID).Error("Failed to mark client as paid")
			if derr := h.Store.Delete(r.Context(), claims.OwnerID, payment.ID.Hex()); derr != nil {
				log.WithError(derr).WithField("payment_id", payment.ID.Hex()).Error("Failed to roll back payment")
			}
			writeError(w, err, "client")
			return
		}
	}

	log.WithFields(log.Fields{
		"client_id":       payment.ClientID,
		"owner_id":        claims.OwnerID,
		"reference_month": payment.ReferenceMonth,
	}).Info("Recorded payment")
	writeJSON(w, http.StatusCreated, h.present(&payment, now))
}

// settle applies a payment made at paidAt to the client and reports whether
// the client changed. The last payment date never moves backwards, and a
// payment that does not cover the current billing cycle leaves the flag alone.
func settle(client *models.Client, paidAt, now time.Time) bool {
	if client.LastPaymentAt != nil && !paidAt.After(*client.LastPaymentAt) {
		return false
	}
	client.LastPaymentAt = &paidAt
	if due, ok := client.PaymentDue(now); !ok || due.Covered {
		client.PaymentStatus = models.PaymentStatusPaid
	}
	return true
}

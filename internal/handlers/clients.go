package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Kavicki-com/gymapp/internal/db"
	"github.com/Kavicki-com/gymapp/internal/format"
	"github.com/Kavicki-com/gymapp/internal/models"
	"github.com/Kavicki-com/gymapp/internal/observability"
	"github.com/Kavicki-com/gymapp/internal/status"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
)

// ClientView is a client as returned by the API, with its derived payment state.
type ClientView struct {
	models.Client
	CPFFormatted   string             `json:"cpf_formatted,omitempty"`
	PhoneFormatted string             `json:"phone_formatted,omitempty"`
	IsOverdue      bool               `json:"is_overdue"`
	PaymentDue     *status.PaymentDue `json:"payment_due,omitempty"`
}

// NewClientView derives the payment fields of a client at now.
func NewClientView(c *models.Client, now time.Time) ClientView {
	v := ClientView{
		Client:    *c,
		IsOverdue: c.IsOverdue(),
	}
	if c.CPF != "" {
		v.CPFFormatted = format.MaskCPF(c.CPF)
	}
	if c.Phone != "" {
		v.PhoneFormatted = format.MaskPhone(c.Phone)
	}
	if due, ok := c.PaymentDue(now); ok {
		v.PaymentDue = &due
	}
	tier := "ok"
	if v.IsOverdue {
		tier = "overdue"
	}
	observability.RecordStatus("payment", tier)
	return v
}

// ClientHandler serves /api/clients.
type ClientHandler struct {
	*Resource[models.Client, *models.Client]
}

// NewClientHandler creates the client endpoints over store.
func NewClientHandler(store db.OwnedCollection[models.Client]) *ClientHandler {
	return &ClientHandler{Resource: &Resource[models.Client, *models.Client]{
		Name:   "client",
		Store:  store,
		Sort:   bson.D{{Key: "name", Value: 1}},
		Filter: clientFilter,
		Present: func(c *models.Client, now time.Time) interface{} {
			return NewClientView(c, now)
		},
		// Only recorded payments move the last payment date.
		Preserve: func(existing, c *models.Client) {
			c.LastPaymentAt = existing.LastPaymentAt
		},
	}}
}

// clientFilter supports ?search=, ?active= and ?overdue=.
func clientFilter(r *http.Request) bson.M {
	q := r.URL.Query()
	filter := bson.M{}
	if search := strings.TrimSpace(q.Get("search")); search != "" {
		pattern := regexp.QuoteMeta(search)
		or := bson.A{bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}}}
		if digits := format.Digits(search); digits != "" {
			or = append(or, bson.M{"cpf": bson.M{"$regex": regexp.QuoteMeta(format.MaskCPF(digits))}})
		}
		filter["$or"] = or
	}
	if active, err := strconv.ParseBool(q.Get("active")); err == nil {
		filter["active"] = active
	}
	if overdue, err := strconv.ParseBool(q.Get("overdue")); err == nil {
		if overdue {
			filter["payment_status"] = bson.M{"$ne": models.PaymentStatusPaid}
		} else {
			filter["payment_status"] = models.PaymentStatusPaid
		}
	}
	return filter
}

// ResetPayment sets a client back to pending, starting a new billing month.
func (h *ClientHandler) ResetPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	client, err := h.Store.FindByID(r.Context(), claims.OwnerID, id)
	if err != nil {
		writeError(w, err, h.Name)
		return
	}
	client.PaymentStatus = models.PaymentStatusPending
	if err := h.Store.Update(r.Context(), claims.OwnerID, id, client); err != nil {
		writeError(w, err, h.Name)
		return
	}
	log.WithFields(log.Fields{"client_id": id, "owner_id": claims.OwnerID}).Info("Reset client payment status")
	writeJSON(w, http.StatusOK, NewClientView(client, h.now()))
}

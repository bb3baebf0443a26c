package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/cycle"
	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/order"
)

const dateLayout = "2006-01-02"

// OrderHandler serves order submission, cycle reads, validation and the
// consumption averages.
type OrderHandler struct {
	svc order.Service
	now func() time.Time
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc, now: time.Now}
}

// NewOrderHandlerWithClock pins the clock, for tests.
func NewOrderHandlerWithClock(svc order.Service, now func() time.Time) *OrderHandler {
	return &OrderHandler{svc: svc, now: now}
}

type cycleResponse struct {
	DeliveryDate         string `json:"delivery_date"`
	PreviousDeliveryDate string `json:"previous_delivery_date"`
}

// GetCycle returns the current and previous delivery dates.
func (h *OrderHandler) GetCycle(w http.ResponseWriter, r *http.Request) {
	current := cycle.NextDeliveryDate(h.now())
	previous := cycle.PreviousDeliveryDate(current)

	respondWithJSON(w, http.StatusOK, cycleResponse{
		DeliveryDate:         current.Format(dateLayout),
		PreviousDeliveryDate: previous.Format(dateLayout),
	})
}

type orderPayload struct {
	ServiceID    uuid.UUID `json:"service_id"`
	DeliveryDate string    `json:"delivery_date"`
	Items        []struct {
		ItemID   uuid.UUID `json:"item_id"`
		Quantity int       `json:"quantity"`
	} `json:"items"`
}

// SubmitOrder upserts a service's order for a cycle. The payload carries
// the full desired line set; the previous set is replaced wholesale.
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deliveryDate, err := h.deliveryDate(payload.DeliveryDate)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid delivery_date, expected YYYY-MM-DD")
		return
	}

	quantities := make(map[uuid.UUID]int, len(payload.Items))
	for _, line := range payload.Items {
		quantities[line.ItemID] = line.Quantity
	}

	persisted, err := h.svc.SubmitOrder(r.Context(), payload.ServiceID, deliveryDate, quantities)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder):
			respondWithError(w, http.StatusBadRequest, "order contains no items")
		case errors.Is(err, order.ErrCycleClosed):
			respondWithError(w, http.StatusConflict, "order cycle is closed")
		default:
			log.Error().Err(err).Msg("handler: failed to submit order")
			respondWithError(w, mapErrorToStatusCode(err), "failed to submit order")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, persisted)
}

// GetServiceOrder returns a service's own order for a cycle, defaulting to
// the current one. 404 when the service has not ordered.
func (h *OrderHandler) GetServiceOrder(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	deliveryDate, err := h.deliveryDate(r.URL.Query().Get("delivery_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid delivery_date, expected YYYY-MM-DD")
		return
	}

	o, err := h.svc.OrderForService(r.Context(), serviceID, deliveryDate)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		log.Error().Err(err).Stringer("service_id", serviceID).Msg("handler: failed to get service order")
		respondWithError(w, mapErrorToStatusCode(err), "failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

// ListOrders returns every order of a cycle with its lines, for the
// manager dashboard.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	deliveryDate, err := h.deliveryDate(r.URL.Query().Get("delivery_date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid delivery_date, expected YYYY-MM-DD")
		return
	}

	orders, err := h.svc.OrdersForCycle(r.Context(), deliveryDate)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list cycle orders")
		respondWithError(w, mapErrorToStatusCode(err), "failed to list orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

type validateRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids"`
}

type validateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ValidateOrders triggers the all-or-nothing validation transaction. On
// any failure stock is guaranteed unchanged and the caller may retry.
func (h *OrderHandler) ValidateOrders(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, validateResponse{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.svc.ValidateOrders(r.Context(), req.OrderIDs); err != nil {
		log.Error().Err(err).Msg("handler: order validation failed")
		respondWithJSON(w, mapErrorToStatusCode(err), validateResponse{Success: false, Error: err.Error()})
		return
	}

	respondWithJSON(w, http.StatusOK, validateResponse{Success: true})
}

// ConsumptionAverages returns the rolling weekly consumption average per
// item over the trailing 8-week window.
func (h *OrderHandler) ConsumptionAverages(w http.ResponseWriter, r *http.Request) {
	averages, err := h.svc.WeeklyAverages(r.Context(), h.now())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to compute consumption averages")
		respondWithError(w, mapErrorToStatusCode(err), "failed to compute averages")
		return
	}

	response := make(map[string]float64, len(averages))
	for itemID, avg := range averages {
		response[itemID.String()] = avg
	}

	respondWithJSON(w, http.StatusOK, response)
}

// deliveryDate parses an explicit YYYY-MM-DD value, or falls back to the
// current cycle when none is given.
func (h *OrderHandler) deliveryDate(raw string) (time.Time, error) {
	if raw == "" {
		return cycle.NextDeliveryDate(h.now()), nil
	}
	return time.Parse(dateLayout, raw)
}

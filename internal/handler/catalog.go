package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/catalog"
)

// CatalogHandler serves reference reads and item administration.
type CatalogHandler struct {
	svc catalog.Catalog
}

func NewCatalogHandler(svc catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.Services(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list services")
		respondWithError(w, mapErrorToStatusCode(err), "failed to list services")
		return
	}

	respondWithJSON(w, http.StatusOK, services)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list categories")
		respondWithError(w, mapErrorToStatusCode(err), "failed to list categories")
		return
	}

	respondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Items(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list items")
		respondWithError(w, mapErrorToStatusCode(err), "failed to list items")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.svc.Item(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			respondWithError(w, http.StatusNotFound, "item not found")
			return
		}
		log.Error().Err(err).Stringer("item_id", itemID).Msg("handler: failed to get item")
		respondWithError(w, mapErrorToStatusCode(err), "failed to get item")
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

// OrderableItems returns the catalog filtered to what the service in the
// URL may order.
func (h *CatalogHandler) OrderableItems(w http.ResponseWriter, r *http.Request) {
	serviceID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid service id")
		return
	}

	items, err := h.svc.OrderableItems(r.Context(), serviceID)
	if err != nil {
		log.Error().Err(err).Stringer("service_id", serviceID).Msg("handler: failed to resolve orderable items")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) LowStockItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.LowStockItems(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to list low stock items")
		respondWithError(w, mapErrorToStatusCode(err), "failed to list low stock items")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

type itemPayload struct {
	Name             string      `json:"name"`
	CategoryID       uuid.UUID   `json:"category_id"`
	StockQuantity    int         `json:"stock_quantity"`
	AlertThreshold   *int        `json:"alert_threshold"`
	AssignedServices []uuid.UUID `json:"assigned_services"`
}

func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := catalog.Item{
		Name:             payload.Name,
		CategoryID:       payload.CategoryID,
		StockQuantity:    payload.StockQuantity,
		AlertThreshold:   payload.AlertThreshold,
		AssignedServices: payload.AssignedServices,
	}
	if item.AssignedServices == nil {
		item.AssignedServices = make([]uuid.UUID, 0)
	}

	if err := h.svc.CreateItem(r.Context(), &item); err != nil {
		log.Error().Err(err).Msg("handler: failed to create item")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}

func (h *CatalogHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := catalog.Item{
		ID:               itemID,
		Name:             payload.Name,
		CategoryID:       payload.CategoryID,
		StockQuantity:    payload.StockQuantity,
		AlertThreshold:   payload.AlertThreshold,
		AssignedServices: payload.AssignedServices,
	}
	if item.AssignedServices == nil {
		item.AssignedServices = make([]uuid.UUID, 0)
	}

	if err := h.svc.UpdateItem(r.Context(), &item); err != nil {
		log.Error().Err(err).Stringer("item_id", itemID).Msg("handler: failed to update item")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, item)
}

func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.svc.DeleteItem(r.Context(), itemID); err != nil {
		log.Error().Err(err).Stringer("item_id", itemID).Msg("handler: failed to delete item")
		respondWithError(w, mapErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

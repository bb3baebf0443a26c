package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/auth"
	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/catalog"
	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/order"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrItemNotFound),
		errors.Is(err, catalog.ErrServiceNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrNothingToValidate):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrCycleClosed):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidPassword):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

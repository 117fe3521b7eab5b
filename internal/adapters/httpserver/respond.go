package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/gebeya/internal/domain"
)

const maxBody = 1 << 20

type errorBody struct {
	Error     string         `json:"error"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the domain error taxonomy onto HTTP.
func statusFor(err error) int {
	var pe *domain.PaymentProviderError
	switch {
	case errors.As(err, &pe):
		return pe.HTTPStatus()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrBaseCurrencyDeletion),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	body := errorBody{Error: err.Error(), RequestID: middleware.GetReqID(r.Context())}
	var se *domain.InsufficientStockError
	if errors.As(err, &se) {
		body.Details = map[string]any{"product_id": se.ProductID, "available": se.Available, "requested": se.Requested}
	}
	if code >= 500 {
		log.Error().Err(err).Str("request_id", body.RequestID).Str("path", r.URL.Path).Msg("request failed")
		var pe *domain.PaymentProviderError
		if !errors.As(err, &pe) {
			body.Error = "internal server error"
		}
	}
	writeJSON(w, code, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("invalid JSON body: %v", err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.Invalid("invalid %s", name)
	}
	return id, nil
}

func pathCode(r *http.Request) domain.CurrencyCode {
	return domain.CurrencyCode(strings.ToUpper(chi.URLParam(r, "code")))
}

// sellerScope resolves which seller a listing is for: the caller itself unless an
// admin asks for someone else via ?seller_id=.
func sellerScope(r *http.Request) (uuid.UUID, error) {
	actor := actorFrom(r.Context())
	raw := r.URL.Query().Get("seller_id")
	if raw == "" {
		return actor.ID, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Invalid("invalid seller_id")
	}
	if id != actor.ID && !actor.IsAdmin() {
		return uuid.Nil, fmt.Errorf("%w: listing of another seller", domain.ErrForbidden)
	}
	return id, nil
}

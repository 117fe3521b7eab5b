package httpserver

import (
	"net/http"
	"strconv"

	"github.com/phenrril/gebeya/internal/domain"
	"github.com/phenrril/gebeya/internal/usecase"
)

func (s *Server) apiCurrencies(w http.ResponseWriter, r *http.Request) {
	list, err := s.currencies.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"currencies": list})
}

func (s *Server) apiCurrencyGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.currencies.Get(r.Context(), pathCode(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) apiCurrencyCreate(w http.ResponseWriter, r *http.Request) {
	var in usecase.CurrencyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.currencies.Create(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) apiCurrencyUpdate(w http.ResponseWriter, r *http.Request) {
	var in usecase.CurrencyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.currencies.Update(r.Context(), actorFrom(r.Context()), pathCode(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) apiCurrencyRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExchangeRate float64 `json:"exchange_rate"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.currencies.UpdateRate(r.Context(), actorFrom(r.Context()), pathCode(r), req.ExchangeRate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) apiCurrencyBase(w http.ResponseWriter, r *http.Request) {
	c, err := s.currencies.SetBaseCurrency(r.Context(), actorFrom(r.Context()), pathCode(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) apiCurrencyDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.currencies.DeleteCurrency(r.Context(), actorFrom(r.Context()), pathCode(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiCurrencyConvert serves GET /currencies/convert?amount=&from=&to=.
func (s *Server) apiCurrencyConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(q.Get("amount"), 64)
	if err != nil {
		writeError(w, r, domain.Invalid("amount must be a number"))
		return
	}
	res, err := s.currencies.Convert(r.Context(), amount, domain.CurrencyCode(q.Get("from")), domain.CurrencyCode(q.Get("to")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiCurrencyFormat(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseFloat(r.URL.Query().Get("amount"), 64)
	if err != nil {
		writeError(w, r, domain.Invalid("amount must be a number"))
		return
	}
	c, err := s.currencies.Get(r.Context(), pathCode(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"amount": amount, "currency": c.Code, "formatted": usecase.FormatPrice(amount, *c)})
}

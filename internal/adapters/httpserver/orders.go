package httpserver

import (
	"net/http"

	"github.com/phenrril/gebeya/internal/usecase"
)

func (s *Server) apiOrderCreate(w http.ResponseWriter, r *http.Request) {
	var in usecase.CreateOrderInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.orders.CreateOrder(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) apiOrderGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.orders.Get(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) apiOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.StatusUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.orders.UpdateOrderStatus(r.Context(), actorFrom(r.Context()), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) apiOrderCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	o, err := s.orders.CancelOrder(r.Context(), actorFrom(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

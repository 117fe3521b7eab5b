package httpserver

import (
	"net/http"

	"github.com/phenrril/gebeya/internal/usecase"
)

func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Me(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) apiMeSave(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProfileInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.users.SaveProfile(r.Context(), actorFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

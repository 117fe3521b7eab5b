package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/gebeya/internal/domain"
	"github.com/phenrril/gebeya/internal/usecase"
)

type initiateFunc func(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*usecase.PaymentInitiation, error)

func (s *Server) initiate(w http.ResponseWriter, r *http.Request, fn initiateFunc) {
	id, err := pathUUID(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := fn(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiPayChapa(w http.ResponseWriter, r *http.Request) {
	s.initiate(w, r, s.payments.InitiateChapa)
}

func (s *Server) apiPayTelebirr(w http.ResponseWriter, r *http.Request) {
	s.initiate(w, r, s.payments.InitiateTelebirr)
}

func (s *Server) apiPayBankTransfer(w http.ResponseWriter, r *http.Request) {
	s.initiate(w, r, s.payments.InitiateBankTransfer)
}

func (s *Server) apiPayCOD(w http.ResponseWriter, r *http.Request) {
	s.initiate(w, r, s.payments.ConfirmCOD)
}

func (s *Server) apiVerifyBankTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "orderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Verified  bool   `json:"verified"`
		Reference string `json:"reference"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := s.payments.VerifyBankTransfer(r.Context(), actorFrom(r.Context()), id, req.Verified, req.Reference)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// readWebhook decodes a provider body. A body that cannot be read is answered
// here so the provider always gets the same response shape.
func readWebhook(w http.ResponseWriter, r *http.Request, provider string, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err == nil {
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		log.Warn().Err(err).Str("provider", provider).Msg("webhook body")
		writeJSON(w, http.StatusBadRequest, usecase.WebhookResult{Status: "failed", Message: "invalid payload"})
		return false
	}
	return true
}

func (s *Server) webhookChapa(w http.ResponseWriter, r *http.Request) {
	var evt struct {
		TxRef  string `json:"tx_ref"`
		TrxRef string `json:"trx_ref"`
	}
	if !readWebhook(w, r, "chapa", &evt) {
		return
	}
	ref := evt.TxRef
	if ref == "" {
		ref = evt.TrxRef
	}
	res := s.payments.HandleChapaWebhook(r.Context(), ref)
	writeJSON(w, res.HTTPStatus, res)
}

func (s *Server) webhookTelebirr(w http.ResponseWriter, r *http.Request) {
	var n domain.TelebirrNotification
	if !readWebhook(w, r, "telebirr", &n) {
		return
	}
	res := s.payments.HandleTelebirrWebhook(r.Context(), n)
	writeJSON(w, res.HTTPStatus, res)
}

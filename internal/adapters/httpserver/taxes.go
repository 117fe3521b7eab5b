package httpserver

import (
	"net/http"

	"github.com/phenrril/gebeya/internal/adapters/spreadsheet"
	"github.com/phenrril/gebeya/internal/domain"
	"github.com/phenrril/gebeya/internal/usecase"
)

const maxUpload = 10 << 20

func (s *Server) apiTaxCalculate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items           []usecase.TaxItem       `json:"items"`
		ShippingAddress *domain.ShippingAddress `json:"shipping_address"`
		ShippingCost    float64                 `json:"shipping_cost"`
		Currency        domain.CurrencyCode     `json:"currency"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	calc, err := s.taxes.CalculateTaxes(r.Context(), req.Items, req.ShippingAddress, req.ShippingCost, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (s *Server) apiTaxRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rates, err := s.taxes.GetTaxRates(r.Context(), q.Get("country"), q.Get("region"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rates": rates})
}

func (s *Server) apiTaxRuleSave(w http.ResponseWriter, r *http.Request) {
	var rule domain.TaxRule
	if err := decodeJSON(r, &rule); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.taxes.SaveRule(r.Context(), actorFrom(r.Context()), &rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

// apiTaxRulesImport accepts a multipart upload with the workbook in field "file".
func (s *Server) apiTaxRulesImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, r, domain.Invalid("multipart form expected: %v", err))
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.Invalid("file is required"))
		return
	}
	defer f.Close()
	rules, err := spreadsheet.ParseTaxRules(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	n, err := s.taxes.ImportRules(r.Context(), actorFrom(r.Context()), rules)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": n})
}

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phenrril/gebeya/internal/usecase"
)

type Server struct {
	router     *chi.Mux
	products   *usecase.ProductUC
	promotions *usecase.PromotionUC
	orders     *usecase.OrderUC
	payments   *usecase.PaymentUC
	taxes      *usecase.TaxUC
	currencies *usecase.CurrencyUC
	users      *usecase.UserUC
	jwtSecret  []byte
}

type Deps struct {
	Products   *usecase.ProductUC
	Promotions *usecase.PromotionUC
	Orders     *usecase.OrderUC
	Payments   *usecase.PaymentUC
	Taxes      *usecase.TaxUC
	Currencies *usecase.CurrencyUC
	Users      *usecase.UserUC
	JWTSecret  string
}

func New(d Deps) http.Handler {
	s := &Server{
		router:     chi.NewRouter(),
		products:   d.Products,
		promotions: d.Promotions,
		orders:     d.Orders,
		payments:   d.Payments,
		taxes:      d.Taxes,
		currencies: d.Currencies,
		users:      d.Users,
		jwtSecret:  []byte(d.JWTSecret),
	}
	s.router.Use(RequestID, middleware.RealIP, Logging, Recovery)
	s.routes()
	return s.router
}

func (s *Server) routes() {
	r := s.router

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().UTC()})
	})

	// provider callbacks are unauthenticated
	r.Post("/payments/chapa/webhook", s.webhookChapa)
	r.Post("/payments/telebirr/webhook", s.webhookTelebirr)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Auth(s.jwtSecret))

		r.Get("/me", s.apiMe)
		r.Put("/me", s.apiMeSave)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.apiProductsBySeller)
			r.Post("/", s.apiProductCreate)
			r.Get("/{id}", s.apiProductGet)
			r.Put("/{id}", s.apiProductUpdate)
			r.Delete("/{id}", s.apiProductDelete)
		})

		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", s.apiPromotionsBySeller)
			r.Post("/", s.apiPromotionCreate)
			r.Put("/{id}", s.apiPromotionUpdate)
			r.Patch("/{id}/status", s.apiPromotionStatus)
			r.Delete("/{id}", s.apiPromotionDelete)
			r.Post("/{id}/validate", s.apiPromotionValidate)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", s.apiOrderCreate)
			r.Get("/{id}", s.apiOrderGet)
			r.Patch("/{id}/status", s.apiOrderStatus)
			r.Post("/{id}/cancel", s.apiOrderCancel)
		})

		r.Route("/payments/{orderID}", func(r chi.Router) {
			r.Post("/chapa", s.apiPayChapa)
			r.Post("/telebirr", s.apiPayTelebirr)
			r.Post("/bank-transfer", s.apiPayBankTransfer)
			r.Post("/bank-transfer/verify", s.apiVerifyBankTransfer)
			r.Post("/cod", s.apiPayCOD)
		})

		r.Route("/taxes", func(r chi.Router) {
			r.Post("/calculate", s.apiTaxCalculate)
			r.Get("/rates", s.apiTaxRates)
			r.Post("/rules", s.apiTaxRuleSave)
			r.Post("/rules/import", s.apiTaxRulesImport)
		})

		r.Route("/currencies", func(r chi.Router) {
			r.Get("/", s.apiCurrencies)
			r.Post("/", s.apiCurrencyCreate)
			r.Get("/convert", s.apiCurrencyConvert)
			r.Get("/{code}", s.apiCurrencyGet)
			r.Put("/{code}", s.apiCurrencyUpdate)
			r.Delete("/{code}", s.apiCurrencyDelete)
			r.Put("/{code}/rate", s.apiCurrencyRate)
			r.Post("/{code}/base", s.apiCurrencyBase)
			r.Get("/{code}/format", s.apiCurrencyFormat)
		})
	})
}

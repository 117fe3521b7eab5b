package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/phenrril/gebeya/internal/adapters/events/kafkapub"
	"github.com/phenrril/gebeya/internal/adapters/httpserver"
	"github.com/phenrril/gebeya/internal/adapters/payments/banktransfer"
	"github.com/phenrril/gebeya/internal/adapters/payments/chapa"
	"github.com/phenrril/gebeya/internal/adapters/payments/telebirr"
	"github.com/phenrril/gebeya/internal/adapters/repo/postgres"
	"github.com/phenrril/gebeya/internal/adapters/sequence/redisseq"
	"github.com/phenrril/gebeya/internal/config"
	"github.com/phenrril/gebeya/internal/domain"
	"github.com/phenrril/gebeya/internal/usecase"
)

type App struct {
	DB     *gorm.DB
	Config *config.Config

	ProductUC   *usecase.ProductUC
	PromotionUC *usecase.PromotionUC
	OrderUC     *usecase.OrderUC
	PaymentUC   *usecase.PaymentUC
	TaxUC       *usecase.TaxUC
	CurrencyUC  *usecase.CurrencyUC
	UserUC      *usecase.UserUC

	closers []io.Closer
}

func NewApp(db *gorm.DB, cfg *config.Config) (*App, error) {
	authz, err := usecase.NewAuthorizer()
	if err != nil {
		return nil, err
	}

	prodRepo := postgres.NewProductRepo(db)
	promoRepo := postgres.NewPromotionRepo(db)
	orderRepo := postgres.NewOrderRepo(db)
	userRepo := postgres.NewUserRepo(db)
	taxRepo := postgres.NewTaxRuleRepo(db)
	currencyRepo := postgres.NewCurrencyRepo(db)

	a := &App{DB: db, Config: cfg}

	var seq domain.OrderSequence
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, order numbers fall back to count")
			_ = rdb.Close()
		} else {
			seq = redisseq.New(rdb, "")
			a.closers = append(a.closers, rdb)
		}
		cancel()
	}

	var events domain.EventPublisher = kafkapub.Logger{}
	if pub, err := kafkapub.New(cfg.Brokers(), cfg.KafkaTopic); err == nil {
		events = pub
		a.closers = append(a.closers, pub)
	} else if !errors.Is(err, kafkapub.ErrNoBrokers) {
		return nil, err
	}

	pricing := &usecase.PricingUC{Products: prodRepo, Promotions: promoRepo}
	taxes := &usecase.TaxUC{Rules: taxRepo, Authz: authz}

	a.ProductUC = &usecase.ProductUC{Products: prodRepo, Pricing: pricing, Authz: authz}
	a.PromotionUC = &usecase.PromotionUC{Promotions: promoRepo, Pricing: pricing, Authz: authz}
	a.TaxUC = taxes
	a.OrderUC = &usecase.OrderUC{
		Orders:   orderRepo,
		Products: prodRepo,
		Users:    userRepo,
		Taxes:    taxes,
		Sequence: seq,
		Events:   events,
		Authz:    authz,
	}
	a.PaymentUC = &usecase.PaymentUC{
		Orders:           orderRepo,
		Chapa:            chapa.NewGateway(cfg.ChapaSecretKey, cfg.ChapaBaseURL),
		Telebirr:         telebirr.NewGateway(cfg.TelebirrAppID, cfg.TelebirrAppKey, cfg.TelebirrShortCode, cfg.TelebirrBaseURL),
		Bank:             banktransfer.NewGateway(cfg.BankName, cfg.BankAccountName, cfg.BankAccountNumber),
		Events:           events,
		Authz:            authz,
		ChapaCallbackURL: cfg.PublicBaseURL + "/payments/chapa/webhook",
		ChapaReturnURL:   cfg.PublicBaseURL + "/orders",
	}
	a.CurrencyUC = &usecase.CurrencyUC{Currencies: currencyRepo, Authz: authz}
	a.UserUC = &usecase.UserUC{Users: userRepo, Authz: authz}
	return a, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(httpserver.Deps{
		Products:   a.ProductUC,
		Promotions: a.PromotionUC,
		Orders:     a.OrderUC,
		Payments:   a.PaymentUC,
		Taxes:      a.TaxUC,
		Currencies: a.CurrencyUC,
		Users:      a.UserUC,
		JWTSecret:  a.Config.JWTSecret,
	})
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}
}

func (a *App) MigrateAndSeed() error {
	if err := a.DB.AutoMigrate(
		&domain.User{}, &domain.Product{}, &domain.SellerPromotion{}, &domain.Order{}, &domain.OrderItem{},
		&domain.TaxRule{}, &domain.Currency{},
	); err != nil {
		return err
	}

	// at most one base currency, enforced by the database too
	if err := a.DB.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_currencies_single_base ON currencies (is_base_currency) WHERE is_base_currency").Error; err != nil {
		return fmt.Errorf("single base currency index: %w", err)
	}
	if err := a.DB.Exec("CREATE INDEX IF NOT EXISTS idx_order_items_order_seller ON order_items (order_id, seller_id)").Error; err != nil {
		log.Warn().Err(err).Msg("order items seller index")
	}

	if err := seedCurrencies(a.DB); err != nil {
		return err
	}
	return seedTaxRules(a.DB)
}

func seedCurrencies(db *gorm.DB) error {
	var n int64
	if err := db.Model(&domain.Currency{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	etb := domain.Currency{
		ID:                uuid.New(),
		Code:              domain.CurrencyETB,
		Name:              "Ethiopian Birr",
		Symbol:            "Br",
		ExchangeRate:      1,
		IsBaseCurrency:    true,
		DecimalPlaces:     2,
		SymbolPosition:    domain.SymbolAfter,
		ThousandSeparator: ",",
		DecimalSeparator:  ".",
		IsActive:          true,
	}
	log.Info().Str("code", string(etb.Code)).Msg("seeding base currency")
	return db.Create(&etb).Error
}

// seedTaxRules installs Ethiopia's standard 15% VAT when no rule exists yet.
func seedTaxRules(db *gorm.DB) error {
	var n int64
	if err := db.Model(&domain.TaxRule{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	vat := domain.TaxRule{
		ID:        uuid.New(),
		Name:      "VAT",
		Country:   domain.DefaultCountry,
		Region:    domain.RegionAll,
		TaxType:   "vat",
		Rate:      15,
		AppliesTo: domain.TaxAppliesTo{Products: true, Shipping: true},
		IsActive:  true,
		ValidFrom: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	return db.Create(&vat).Error
}

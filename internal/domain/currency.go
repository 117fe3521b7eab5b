package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CurrencyCode string

const CurrencyETB CurrencyCode = "ETB"

type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

type Currency struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code              CurrencyCode   `gorm:"size:3;uniqueIndex" json:"code"`
	Name              string         `gorm:"size:80" json:"name"`
	Symbol            string         `gorm:"size:10" json:"symbol"`
	ExchangeRate      float64        `gorm:"type:decimal(18,6);default:1" json:"exchange_rate"`
	IsBaseCurrency    bool           `gorm:"default:false;index" json:"is_base_currency"`
	DecimalPlaces     int            `gorm:"default:2" json:"decimal_places"`
	SymbolPosition    SymbolPosition `gorm:"size:10;default:before" json:"symbol_position"`
	ThousandSeparator string         `gorm:"size:2;default:','" json:"thousand_separator"`
	DecimalSeparator  string         `gorm:"size:2;default:'.'" json:"decimal_separator"`
	IsActive          bool           `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type CurrencyRepo interface {
	FindByCode(ctx context.Context, code CurrencyCode) (*Currency, error)
	FindBase(ctx context.Context) (*Currency, error)
	List(ctx context.Context) ([]Currency, error)
	Save(ctx context.Context, c *Currency) error
	Delete(ctx context.Context, code CurrencyCode) error
	// SetBase clears the base flag everywhere and makes code the base at rate 1,
	// as a single unit of work.
	SetBase(ctx context.Context, code CurrencyCode) error
}

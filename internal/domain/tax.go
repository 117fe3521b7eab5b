package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RegionAll matches every region of the rule's country.
const RegionAll = "all"

type TaxAppliesTo struct {
	Products bool `json:"products"`
	Shipping bool `json:"shipping"`
	Handling bool `json:"handling"`
}

type TaxRule struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string       `gorm:"size:120" json:"name"`
	Country    string       `gorm:"size:80;index" json:"country"`
	Region     string       `gorm:"size:80;index" json:"region"`
	TaxType    string       `gorm:"size:40" json:"tax_type"`
	Rate       float64      `gorm:"type:decimal(6,3)" json:"rate"`
	IsCompound bool         `gorm:"default:false" json:"is_compound"`
	Priority   int          `gorm:"default:0;index" json:"priority"`
	AppliesTo  TaxAppliesTo `gorm:"embedded;embeddedPrefix:applies_to_" json:"applies_to"`
	Categories []string     `gorm:"type:jsonb;serializer:json" json:"categories"`
	Products   []uuid.UUID  `gorm:"type:jsonb;serializer:json" json:"products"`
	Exceptions []uuid.UUID  `gorm:"type:jsonb;serializer:json" json:"exceptions"`
	ValidFrom  time.Time    `json:"valid_from"`
	ValidUntil *time.Time   `json:"valid_until"`
	IsActive   bool         `gorm:"default:true;index" json:"is_active"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// ImportedTaxRule is a rule read from an uploaded sheet with its 1-based sheet row.
type ImportedTaxRule struct {
	Row  int
	Rule TaxRule
}

// EffectiveAt reports whether the rule's validity window contains t.
func (r TaxRule) EffectiveAt(t time.Time) bool {
	if r.ValidFrom.After(t) {
		return false
	}
	return r.ValidUntil == nil || !r.ValidUntil.Before(t)
}

type TaxRuleRepo interface {
	// ListActive returns the active rules of a country, in no particular order.
	ListActive(ctx context.Context, country string) ([]TaxRule, error)
	Save(ctx context.Context, r *TaxRule) error
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RateSourceAPI    = "API"
	RateSourceManual = "MANUAL"
)

// ExchangeRate holds the units of Currency per one unit of the base currency.
// A manual rate, when enabled, takes precedence over the provider rate.
type ExchangeRate struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Currency      string           `gorm:"type:varchar(3);uniqueIndex;not null" json:"currency"`
	APIRate       decimal.Decimal  `gorm:"type:decimal(20,8);not null;default:0" json:"api_rate"`
	ManualRate    *decimal.Decimal `gorm:"type:decimal(20,8)" json:"manual_rate"`
	UseManual     bool             `gorm:"not null;default:false" json:"use_manual"`
	MarkupPercent decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0" json:"markup_percent"`
	FetchedAt     *time.Time       `json:"fetched_at"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Source reports which rate feeds the effective rate
func (r ExchangeRate) Source() string {
	if r.UseManual && r.ManualRate != nil && r.ManualRate.IsPositive() {
		return RateSourceManual
	}
	return RateSourceAPI
}

// EffectiveRate applies manual-over-API precedence and then the markup.
// ok is false when no usable rate exists.
func (r ExchangeRate) EffectiveRate() (rate decimal.Decimal, ok bool) {
	rate = r.APIRate
	if r.Source() == RateSourceManual {
		rate = *r.ManualRate
	}
	if !rate.IsPositive() {
		return decimal.Zero, false
	}
	factor := decimal.NewFromInt(1).Add(r.MarkupPercent.Div(decimal.NewFromInt(100)))
	return rate.Mul(factor), true
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CountryVAT stores the VAT percentage applied to orders shipped to a country
type CountryVAT struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Country   string          `gorm:"type:varchar(100);not null;index" json:"country"` // Matched case-insensitively
	VATRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_rate"`      // Percentage, 0-100
	IsActive  bool            `gorm:"not null;default:true;index" json:"is_active"`    // Inactive rates never resolve
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (CountryVAT) TableName() string {
	return "country_vat"
}

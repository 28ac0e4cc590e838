package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the subset of the catalog entity this service reads and updates.
// Catalog ownership stays with the storefront; only the tax flags are written here.
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID   *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id"`
	SKU          string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"` // In the base currency
	CurrentStock int             `gorm:"type:int;default:0;not null" json:"current_stock"`
	TaxExempt    bool            `gorm:"not null;default:false" json:"tax_exempt"`
	TaxInclusive bool            `gorm:"not null;default:false" json:"tax_inclusive"` // Price already contains VAT
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`
}

// ProductTaxAttributes are the per-product flags consumed by VAT calculation
type ProductTaxAttributes struct {
	ProductID    uuid.UUID `json:"product_id"`
	TaxExempt    bool      `json:"tax_exempt"`
	TaxInclusive bool      `json:"tax_inclusive"`
}

// DefaultTaxAttributes is used for products that cannot be resolved
func DefaultTaxAttributes(id uuid.UUID) ProductTaxAttributes {
	return ProductTaxAttributes{ProductID: id}
}

package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateVATRate          = "CREATE_VAT_RATE"
	ActionUpdateVATRate          = "UPDATE_VAT_RATE"
	ActionDeleteVATRate          = "DELETE_VAT_RATE"
	ActionImportVATRates         = "IMPORT_VAT_RATES"
	ActionUpdateProductExemption = "UPDATE_PRODUCT_TAX_EXEMPTION"
	ActionUpdateProductInclusive = "UPDATE_PRODUCT_TAX_INCLUSIVITY"
	ActionClearProductTaxCache   = "CLEAR_PRODUCT_TAX_CACHE"
	ActionSetManualRate          = "SET_MANUAL_EXCHANGE_RATE"
	ActionClearManualRate        = "CLEAR_MANUAL_EXCHANGE_RATE"
	ActionSetMarkup              = "SET_EXCHANGE_MARKUP"
	ActionRefreshExchangeRates   = "REFRESH_EXCHANGE_RATES"
)

// AuditLog tracks who changed tax or currency configuration and when
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nil for automated jobs
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

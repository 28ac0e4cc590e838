package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/apperr"
	"marketplace/internal/logger"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SaveCountryVATRequest struct {
	Country  string `json:"country" binding:"required"`
	VATRate  string `json:"vat_rate" binding:"required"` // Decimal percent, e.g. "7.50"
	IsActive *bool  `json:"is_active"`                   // Defaults to true
}

type CountryVATResponse struct {
	ID        string `json:"id"`
	Country   string `json:"country"`
	VATRate   string `json:"vat_rate"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type VATRateResponse struct {
	Country string `json:"country"`
	VATRate string `json:"vat_rate"`
}

type CalculateVATRequest struct {
	BaseAmount string   `json:"base_amount" binding:"required"`
	Country    string   `json:"country"`
	ProductIDs []string `json:"product_ids"`
}

type TaxCalculationResponse struct {
	BaseAmount         string  `json:"base_amount"`
	VATRate            string  `json:"vat_rate"`
	VATAmount          string  `json:"vat_amount"`
	TaxInclusiveAmount *string `json:"tax_inclusive_amount,omitempty"`
	Total              string  `json:"total"`
	CalculationMethod  string  `json:"calculation_method"`
	IsExempt           bool    `json:"is_exempt"`
}

type ProductTaxLookupRequest struct {
	ProductIDs []string `json:"product_ids" binding:"required"`
}

type ProductTaxInfoResponse struct {
	ProductID    string `json:"product_id"`
	TaxExempt    bool   `json:"tax_exempt"`
	TaxInclusive bool   `json:"tax_inclusive"`
}

type UpdateTaxExemptionRequest struct {
	TaxExempt *bool `json:"tax_exempt" binding:"required"`
}

type UpdateTaxInclusivityRequest struct {
	TaxInclusive *bool `json:"tax_inclusive" binding:"required"`
}

// CountryVATCSVRow is one line of the bulk import/export file
type CountryVATCSVRow struct {
	Country  string `csv:"country"`
	VATRate  string `csv:"vat_rate"`
	IsActive string `csv:"is_active"`
}

type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// --- Interface ---

type TaxService interface {
	GetCountryVATRates(ctx context.Context, includeInactive bool) ([]CountryVATResponse, error)
	SaveCountryVATRate(ctx context.Context, id string, req SaveCountryVATRequest, userID string) (CountryVATResponse, error)
	DeleteCountryVATRate(ctx context.Context, id string, userID string) error
	ImportCountryVATRates(ctx context.Context, r io.Reader, userID string) (ImportResult, error)
	ExportCountryVATRates(ctx context.Context) ([]byte, error)
	UpdateProductTaxExemption(ctx context.Context, productID string, exempt bool, userID string) error
	UpdateProductTaxInclusivity(ctx context.Context, productID string, inclusive bool, userID string) error
	GetVATRate(ctx context.Context, country string) decimal.Decimal
	CalculateVAT(ctx context.Context, baseAmount decimal.Decimal, country string, productIDs []uuid.UUID) (model.TaxCalculation, error)
	GetProductsTaxInfo(ctx context.Context, productIDs []uuid.UUID) map[uuid.UUID]model.ProductTaxAttributes
	ClearProductTaxCache(ctx context.Context, userID string)
}

type taxService struct {
	rates     *VATRateStore
	products  *ProductTaxCache
	repo      repository.ProductRepository
	txManager repository.TransactionManager
	audit     auditRecorder
	events    EventPublisher
	log       *logger.Logger
}

func NewTaxService(
	rates *VATRateStore,
	products *ProductTaxCache,
	productRepo repository.ProductRepository,
	txManager repository.TransactionManager,
	auditRepo repository.AuditRepository,
	events EventPublisher,
	log *logger.Logger,
) TaxService {
	if events == nil {
		events = noopPublisher{}
	}
	return &taxService{
		rates:     rates,
		products:  products,
		repo:      productRepo,
		txManager: txManager,
		audit:     auditRecorder{repo: auditRepo, log: log},
		events:    events,
		log:       log,
	}
}

// --- Country VAT rates ---

func (s *taxService) GetCountryVATRates(ctx context.Context, includeInactive bool) ([]CountryVATResponse, error) {
	var rates []model.CountryVAT
	if includeInactive {
		all, err := s.rates.repo.ListAll(ctx)
		if err != nil {
			return nil, apperr.Database(err, "failed to fetch country VAT rates")
		}
		rates = all
	} else {
		rates = s.rates.Rates(ctx)
	}

	return lo.Map(rates, func(r model.CountryVAT, _ int) CountryVATResponse {
		return toCountryVATResponse(r)
	}), nil
}

func (s *taxService) SaveCountryVATRate(ctx context.Context, id string, req SaveCountryVATRequest, userID string) (CountryVATResponse, error) {
	record, err := parseCountryVAT(req.Country, req.VATRate, req.IsActive)
	if err != nil {
		return CountryVATResponse{}, err
	}

	action := model.ActionCreateVATRate
	if id != "" {
		record.ID, err = uuid.Parse(id)
		if err != nil {
			return CountryVATResponse{}, apperr.Validation("invalid country VAT rate id: %s", id)
		}
		action = model.ActionUpdateVATRate
	}

	saved, err := s.rates.Save(ctx, record)
	if err != nil {
		return CountryVATResponse{}, err
	}

	resp := toCountryVATResponse(*saved)
	s.audit.record(ctx, userID, action, saved.ID.String(), saved.Country+" "+resp.VATRate, req)
	s.events.Publish(EventVATRatesUpdated, resp)

	return resp, nil
}

func (s *taxService) DeleteCountryVATRate(ctx context.Context, id string, userID string) error {
	rateID, err := uuid.Parse(id)
	if err != nil {
		return apperr.Validation("invalid country VAT rate id: %s", id)
	}

	deleted, err := s.rates.Delete(ctx, rateID)
	if err != nil {
		return err
	}

	s.audit.record(ctx, userID, model.ActionDeleteVATRate, id, deleted.Country+" "+deleted.VATRate.StringFixed(2), map[string]string{"deleted_id": id})
	s.events.Publish(EventVATRatesUpdated, map[string]string{"deleted_id": id})

	return nil
}

// ImportCountryVATRates upserts every CSV row by country in one transaction.
// A bad row aborts the whole file.
func (s *taxService) ImportCountryVATRates(ctx context.Context, r io.Reader, userID string) (ImportResult, error) {
	var rows []CountryVATCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return ImportResult{}, apperr.Validation("invalid CSV: %v", err)
	}
	if len(rows) == 0 {
		return ImportResult{}, apperr.Validation("CSV contains no rows")
	}

	records := make([]model.CountryVAT, 0, len(rows))
	for i, row := range rows {
		var active *bool
		if v := strings.TrimSpace(row.IsActive); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return ImportResult{}, apperr.Validation("row %d: invalid is_active %q", i+2, row.IsActive)
			}
			active = &parsed
		}
		record, err := parseCountryVAT(row.Country, row.VATRate, active)
		if err == nil {
			err = validateCountry(record.Country)
		}
		if err == nil {
			err = validateRate(record.VATRate)
		}
		if err != nil {
			return ImportResult{}, apperr.Validation("row %d: %v", i+2, err)
		}
		records = append(records, record)
	}

	var result ImportResult
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i, record := range records {
			existing, err := s.rates.repo.FindByCountry(txCtx, record.Country)
			switch {
			case err == nil:
				record.ID = existing.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return apperr.Database(err, "failed to look up country VAT rate")
			}

			if _, err := s.rates.Save(txCtx, record); err != nil {
				if apperr.IsValidation(err) || apperr.IsAlreadyExists(err) {
					return apperr.Validation("row %d: %v", i+2, err)
				}
				return err
			}
			if record.ID == uuid.Nil {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}

	_ = s.rates.Load(ctx)

	s.audit.record(ctx, userID, model.ActionImportVATRates, "", "country_vat", result)
	s.events.Publish(EventVATRatesUpdated, result)

	return result, nil
}

// ExportCountryVATRates renders every rate, active or not, as CSV
func (s *taxService) ExportCountryVATRates(ctx context.Context) ([]byte, error) {
	all, err := s.rates.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Database(err, "failed to fetch country VAT rates")
	}

	rows := lo.Map(all, func(r model.CountryVAT, _ int) CountryVATCSVRow {
		return CountryVATCSVRow{
			Country:  r.Country,
			VATRate:  r.VATRate.StringFixed(2),
			IsActive: strconv.FormatBool(r.IsActive),
		}
	})

	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- Product tax flags ---

func (s *taxService) UpdateProductTaxExemption(ctx context.Context, productID string, exempt bool, userID string) error {
	id, err := uuid.Parse(productID)
	if err != nil {
		return apperr.Validation("invalid product id: %s", productID)
	}

	affected, err := s.repo.UpdateTaxExempt(ctx, id, exempt)
	if err != nil {
		return apperr.Database(err, "failed to update product tax exemption")
	}
	if affected == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	s.products.Invalidate(id)

	details := map[string]interface{}{"product_id": productID, "tax_exempt": exempt}
	s.audit.record(ctx, userID, model.ActionUpdateProductExemption, productID, "", details)
	s.events.Publish(EventProductTaxUpdated, details)

	return nil
}

func (s *taxService) UpdateProductTaxInclusivity(ctx context.Context, productID string, inclusive bool, userID string) error {
	id, err := uuid.Parse(productID)
	if err != nil {
		return apperr.Validation("invalid product id: %s", productID)
	}

	affected, err := s.repo.UpdateTaxInclusive(ctx, id, inclusive)
	if err != nil {
		return apperr.Database(err, "failed to update product tax inclusivity")
	}
	if affected == 0 {
		return apperr.NotFound("product %s not found", productID)
	}
	s.products.Invalidate(id)

	details := map[string]interface{}{"product_id": productID, "tax_inclusive": inclusive}
	s.audit.record(ctx, userID, model.ActionUpdateProductInclusive, productID, "", details)
	s.events.Publish(EventProductTaxUpdated, details)

	return nil
}

func (s *taxService) ClearProductTaxCache(ctx context.Context, userID string) {
	s.products.Clear()
	s.audit.record(ctx, userID, model.ActionClearProductTaxCache, "", "product_tax_cache", map[string]string{})
	s.events.Publish(EventProductTaxUpdated, map[string]bool{"cleared": true})
}

// --- Read side ---

func (s *taxService) GetVATRate(ctx context.Context, country string) decimal.Decimal {
	return s.rates.GetRate(ctx, country)
}

func (s *taxService) GetProductsTaxInfo(ctx context.Context, productIDs []uuid.UUID) map[uuid.UUID]model.ProductTaxAttributes {
	return s.products.GetMany(ctx, productIDs)
}

// CalculateVAT resolves the country rate and product flags, then runs the calculator
func (s *taxService) CalculateVAT(ctx context.Context, baseAmount decimal.Decimal, country string, productIDs []uuid.UUID) (model.TaxCalculation, error) {
	if baseAmount.IsNegative() {
		return model.TaxCalculation{}, apperr.Validation("base_amount must not be negative, got %s", baseAmount.String())
	}

	rate := s.rates.GetRate(ctx, country)

	var attrs []model.ProductTaxAttributes
	if len(productIDs) > 0 {
		attrs = lo.Values(s.products.GetMany(ctx, productIDs))
	}

	return CalculateVAT(baseAmount, rate, attrs), nil
}

// --- Helpers ---

// ParseUUIDs converts request ids, failing on the first malformed one
func ParseUUIDs(ids []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, apperr.Validation("invalid product id: %s", raw)
		}
		out = append(out, id)
	}
	return out, nil
}

// ParseAmount parses a non-negative decimal amount
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, apperr.Validation("invalid %s value: %s", field, raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, apperr.Validation("%s must not be negative, got %s", field, raw)
	}
	return amount, nil
}

func parseCountryVAT(country, rateStr string, isActive *bool) (model.CountryVAT, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(rateStr))
	if err != nil {
		return model.CountryVAT{}, apperr.Validation("invalid vat_rate value: %s", rateStr)
	}

	active := true
	if isActive != nil {
		active = *isActive
	}

	return model.CountryVAT{
		Country:  strings.TrimSpace(country),
		VATRate:  rate,
		IsActive: active,
	}, nil
}

func toCountryVATResponse(r model.CountryVAT) CountryVATResponse {
	return CountryVATResponse{
		ID:        r.ID.String(),
		Country:   r.Country,
		VATRate:   r.VATRate.StringFixed(2),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

// ToTaxCalculationResponse rounds the breakdown to two places for display
func ToTaxCalculationResponse(calc model.TaxCalculation) TaxCalculationResponse {
	rounded := calc.Rounded(2)
	resp := TaxCalculationResponse{
		BaseAmount:        rounded.BaseAmount.StringFixed(2),
		VATRate:           rounded.VATRate.StringFixed(2),
		VATAmount:         rounded.VATAmount.StringFixed(2),
		Total:             rounded.Total().StringFixed(2),
		CalculationMethod: string(rounded.CalculationMethod),
		IsExempt:          rounded.IsExempt,
	}
	if rounded.TaxInclusiveAmount != nil {
		v := rounded.TaxInclusiveAmount.StringFixed(2)
		resp.TaxInclusiveAmount = &v
	}
	return resp
}

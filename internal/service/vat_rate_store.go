package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"marketplace/internal/apperr"
	"marketplace/internal/logger"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxCountryLen = 100

var (
	hundred    = decimal.NewFromInt(100)
	maxVATRate = hundred
	minVATRate = decimal.Zero
)

// VATRateStore keeps the active country VAT rates in memory. The list is replaced
// wholesale on every load; reads never hit storage unless the list is empty.
type VATRateStore struct {
	repo        repository.CountryVATRepository
	defaultRate decimal.Decimal
	log         *logger.Logger

	mu    sync.RWMutex
	rates []model.CountryVAT
}

func NewVATRateStore(repo repository.CountryVATRepository, defaultRate decimal.Decimal, log *logger.Logger) *VATRateStore {
	return &VATRateStore{
		repo:        repo,
		defaultRate: defaultRate,
		log:         log,
	}
}

// DefaultRate is returned for unknown or missing countries
func (s *VATRateStore) DefaultRate() decimal.Decimal {
	return s.defaultRate
}

// Load replaces the cached list with every active rate. On failure the previous
// list is kept and the error is returned for callers that care.
func (s *VATRateStore) Load(ctx context.Context) error {
	rates, err := s.repo.ListActive(ctx)
	if err != nil {
		s.log.WithContext(ctx).Warnw("failed to load country VAT rates, keeping cached list", "error", err)
		return apperr.Database(err, "failed to load country VAT rates")
	}

	valid := make([]model.CountryVAT, 0, len(rates))
	for _, r := range rates {
		if validateRate(r.VATRate) != nil {
			s.log.WithContext(ctx).Warnw("ignoring out of range VAT rate", "id", r.ID, "country", r.Country, "vat_rate", r.VATRate.String())
			continue
		}
		valid = append(valid, r)
	}

	s.mu.Lock()
	s.rates = valid
	s.mu.Unlock()
	return nil
}

// Rates returns a snapshot of the cached active rates, loading them first if empty
func (s *VATRateStore) Rates(ctx context.Context) []model.CountryVAT {
	s.ensureLoaded(ctx)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CountryVAT, len(s.rates))
	copy(out, s.rates)
	return out
}

// GetRate resolves the VAT percentage for a country. The first active record whose
// name matches case-insensitively wins; anything else gets the default rate.
func (s *VATRateStore) GetRate(ctx context.Context, country string) decimal.Decimal {
	s.ensureLoaded(ctx)

	country = strings.TrimSpace(country)
	if country == "" {
		return s.defaultRate
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rates {
		if strings.EqualFold(strings.TrimSpace(r.Country), country) {
			return r.VATRate
		}
	}
	return s.defaultRate
}

// Save creates (no id) or updates a record, then reloads the list
func (s *VATRateStore) Save(ctx context.Context, record model.CountryVAT) (*model.CountryVAT, error) {
	record.Country = strings.TrimSpace(record.Country)
	if err := validateCountry(record.Country); err != nil {
		return nil, err
	}
	if err := validateRate(record.VATRate); err != nil {
		return nil, err
	}

	var saved *model.CountryVAT
	if record.ID == uuid.Nil {
		if err := s.ensureSingleActive(ctx, record, nil); err != nil {
			return nil, err
		}
		rec := record
		if err := s.repo.Create(ctx, &rec); err != nil {
			return nil, apperr.Database(err, "failed to create country VAT rate")
		}
		saved = &rec
	} else {
		existing, err := s.repo.FindByID(ctx, record.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("country VAT rate %s not found", record.ID)
			}
			return nil, apperr.Database(err, "failed to fetch country VAT rate")
		}
		if err := s.ensureSingleActive(ctx, record, &record.ID); err != nil {
			return nil, err
		}

		existing.Country = record.Country
		existing.VATRate = record.VATRate
		existing.IsActive = record.IsActive
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, apperr.Database(err, "failed to update country VAT rate")
		}
		saved = existing
	}

	s.reloadAfterWrite(ctx)
	return saved, nil
}

// Delete removes a record by id, then reloads the list
func (s *VATRateStore) Delete(ctx context.Context, id uuid.UUID) (*model.CountryVAT, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("country VAT rate %s not found", id)
		}
		return nil, apperr.Database(err, "failed to fetch country VAT rate")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, apperr.Database(err, "failed to delete country VAT rate")
	}

	s.reloadAfterWrite(ctx)
	return existing, nil
}

func (s *VATRateStore) ensureLoaded(ctx context.Context) {
	s.mu.RLock()
	empty := len(s.rates) == 0
	s.mu.RUnlock()

	if empty {
		// Read path degrades to the cached (empty) list on failure
		_ = s.Load(ctx)
	}
}

// reloadAfterWrite is skipped inside a transaction; the caller reloads after commit
func (s *VATRateStore) reloadAfterWrite(ctx context.Context) {
	if repository.InTx(ctx) {
		return
	}
	_ = s.Load(ctx)
}

func (s *VATRateStore) ensureSingleActive(ctx context.Context, record model.CountryVAT, excludeID *uuid.UUID) error {
	if !record.IsActive {
		return nil
	}
	count, err := s.repo.CountActiveByCountry(ctx, record.Country, excludeID)
	if err != nil {
		return apperr.Database(err, "failed to check existing VAT rates")
	}
	if count > 0 {
		return apperr.AlreadyExists("an active VAT rate for '%s' already exists", record.Country)
	}
	return nil
}

func validateCountry(country string) error {
	if country == "" {
		return apperr.Validation("country is required")
	}
	if len(country) > maxCountryLen {
		return apperr.Validation("country must be at most %d characters", maxCountryLen)
	}
	return nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.LessThan(minVATRate) || rate.GreaterThan(maxVATRate) {
		return apperr.Validation("vat_rate must be between 0 and 100, got %s", rate.String())
	}
	return nil
}

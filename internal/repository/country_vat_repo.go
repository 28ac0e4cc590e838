package repository

import (
	"context"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CountryVATRepository interface {
	Create(ctx context.Context, rate *model.CountryVAT) error
	Update(ctx context.Context, rate *model.CountryVAT) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CountryVAT, error)
	FindByCountry(ctx context.Context, country string) (*model.CountryVAT, error)
	ListActive(ctx context.Context) ([]model.CountryVAT, error)
	ListAll(ctx context.Context) ([]model.CountryVAT, error)
	CountActiveByCountry(ctx context.Context, country string, excludeID *uuid.UUID) (int64, error)
}

type countryVATRepository struct {
	db *gorm.DB
}

func NewCountryVATRepository(db *gorm.DB) CountryVATRepository {
	return &countryVATRepository{db: db}
}

func (r *countryVATRepository) Create(ctx context.Context, rate *model.CountryVAT) error {
	return GetDB(ctx, r.db).Create(rate).Error
}

func (r *countryVATRepository) Update(ctx context.Context, rate *model.CountryVAT) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

func (r *countryVATRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.CountryVAT{}).Error
}

func (r *countryVATRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CountryVAT, error) {
	var rate model.CountryVAT
	if err := GetDB(ctx, r.db).First(&rate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

// FindByCountry returns the record for a country, matched case-insensitively.
// The active record wins over inactive ones; ties go to the oldest.
func (r *countryVATRepository) FindByCountry(ctx context.Context, country string) (*model.CountryVAT, error) {
	var rate model.CountryVAT
	if err := GetDB(ctx, r.db).
		Where("LOWER(country) = LOWER(?)", country).
		Order("is_active DESC, created_at ASC").
		First(&rate).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *countryVATRepository) ListActive(ctx context.Context) ([]model.CountryVAT, error) {
	var rates []model.CountryVAT
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).Order("country ASC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *countryVATRepository) ListAll(ctx context.Context) ([]model.CountryVAT, error) {
	var rates []model.CountryVAT
	if err := GetDB(ctx, r.db).Order("country ASC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *countryVATRepository) CountActiveByCountry(ctx context.Context, country string, excludeID *uuid.UUID) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.CountryVAT{}).
		Where("LOWER(country) = LOWER(?) AND is_active = ?", country, true)

	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

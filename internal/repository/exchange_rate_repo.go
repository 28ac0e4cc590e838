package repository

import (
	"context"
	"strings"
	"time"

	"marketplace/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExchangeRateRepository interface {
	List(ctx context.Context) ([]model.ExchangeRate, error)
	FindByCurrency(ctx context.Context, currency string) (*model.ExchangeRate, error)
	Save(ctx context.Context, rate *model.ExchangeRate) error
	UpsertAPIRate(ctx context.Context, currency string, rate decimal.Decimal, fetchedAt time.Time) error
}

type exchangeRateRepository struct {
	db *gorm.DB
}

func NewExchangeRateRepository(db *gorm.DB) ExchangeRateRepository {
	return &exchangeRateRepository{db: db}
}

func (r *exchangeRateRepository) List(ctx context.Context) ([]model.ExchangeRate, error) {
	var rates []model.ExchangeRate
	if err := GetDB(ctx, r.db).Order("currency ASC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

func (r *exchangeRateRepository) FindByCurrency(ctx context.Context, currency string) (*model.ExchangeRate, error) {
	var rate model.ExchangeRate
	if err := GetDB(ctx, r.db).First(&rate, "currency = ?", strings.ToUpper(currency)).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

func (r *exchangeRateRepository) Save(ctx context.Context, rate *model.ExchangeRate) error {
	return GetDB(ctx, r.db).Save(rate).Error
}

// UpsertAPIRate only touches provider-owned columns so manual overrides and markups survive a refresh
func (r *exchangeRateRepository) UpsertAPIRate(ctx context.Context, currency string, rate decimal.Decimal, fetchedAt time.Time) error {
	row := model.ExchangeRate{
		Currency:  strings.ToUpper(currency),
		APIRate:   rate,
		FetchedAt: &fetchedAt,
	}
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"api_rate", "fetched_at", "updated_at"}),
	}).Create(&row).Error
}

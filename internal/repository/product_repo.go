package repository

import (
	"context"

	"marketplace/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductRepository interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	FindTaxAttributes(ctx context.Context, ids []uuid.UUID) ([]model.ProductTaxAttributes, error)
	UpdateTaxExempt(ctx context.Context, id uuid.UUID, exempt bool) (int64, error)
	UpdateTaxInclusive(ctx context.Context, id uuid.UUID, inclusive bool) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindTaxAttributes loads only the tax columns for a batch of products in one query.
// Soft-deleted and unknown ids are simply absent from the result.
func (r *productRepository) FindTaxAttributes(ctx context.Context, ids []uuid.UUID) ([]model.ProductTaxAttributes, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var products []model.Product
	if err := GetDB(ctx, r.db).
		Select("id", "tax_exempt", "tax_inclusive").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}

	attrs := make([]model.ProductTaxAttributes, 0, len(products))
	for _, p := range products {
		attrs = append(attrs, model.ProductTaxAttributes{
			ProductID:    p.ID,
			TaxExempt:    p.TaxExempt,
			TaxInclusive: p.TaxInclusive,
		})
	}
	return attrs, nil
}

func (r *productRepository) UpdateTaxExempt(ctx context.Context, id uuid.UUID, exempt bool) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("tax_exempt", exempt)
	return res.RowsAffected, res.Error
}

func (r *productRepository) UpdateTaxInclusive(ctx context.Context, id uuid.UUID, inclusive bool) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("tax_inclusive", inclusive)
	return res.RowsAffected, res.Error
}

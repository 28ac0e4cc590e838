package service

import (
	"context"
	"time"

	"marketplace/internal/logger"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/samber/lo"
)

// ProductTaxCache memoizes per-product tax flags. Entries live until invalidated
// unless a TTL is configured.
type ProductTaxCache struct {
	repo  repository.ProductRepository
	cache *gocache.Cache
	log   *logger.Logger
}

func NewProductTaxCache(repo repository.ProductRepository, ttl time.Duration, log *logger.Logger) *ProductTaxCache {
	expiration := gocache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 2 * ttl
	}
	return &ProductTaxCache{
		repo:  repo,
		cache: gocache.New(expiration, cleanup),
		log:   log,
	}
}

// GetMany returns attributes for every requested id. Misses are fetched in one
// query; products storage does not know get the defaults. When the fetch fails the
// misses get defaults for this call only and nothing is cached.
func (c *ProductTaxCache) GetMany(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]model.ProductTaxAttributes {
	unique := lo.Uniq(ids)
	result := make(map[uuid.UUID]model.ProductTaxAttributes, len(unique))

	var missing []uuid.UUID
	for _, id := range unique {
		if cached, ok := c.cache.Get(id.String()); ok {
			result[id] = cached.(model.ProductTaxAttributes)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return result
	}

	fetched, err := c.repo.FindTaxAttributes(ctx, missing)
	if err != nil {
		c.log.WithContext(ctx).Warnw("failed to fetch product tax attributes, using defaults",
			"product_count", len(missing),
			"error", err,
		)
		for _, id := range missing {
			result[id] = model.DefaultTaxAttributes(id)
		}
		return result
	}

	byID := lo.KeyBy(fetched, func(a model.ProductTaxAttributes) uuid.UUID { return a.ProductID })
	for _, id := range missing {
		attrs, ok := byID[id]
		if !ok {
			attrs = model.DefaultTaxAttributes(id)
		}
		c.cache.Set(id.String(), attrs, gocache.DefaultExpiration)
		result[id] = attrs
	}
	return result
}

// Invalidate drops a single product entry
func (c *ProductTaxCache) Invalidate(id uuid.UUID) {
	c.cache.Delete(id.String())
}

// Clear drops every entry
func (c *ProductTaxCache) Clear() {
	c.cache.Flush()
}

func (c *ProductTaxCache) Len() int {
	return c.cache.ItemCount()
}

package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/domain"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

// CatalogBackend is the slice of the backend API the catalog proxy needs.
type CatalogBackend interface {
	Products(ctx context.Context, accessToken string) ([]domain.Product, error)
	Categories(ctx context.Context, accessToken string) ([]domain.Category, error)
}

// Cache is a TTL-bounded byte cache; misses and failures look the same.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// CatalogService is a read-through proxy for the backend's catalog
// listings. Listings differ per role (wholesale vs retail pricing), so the
// cache key carries the role.
type CatalogService struct {
	api    CatalogBackend
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCatalogService builds the proxy.
func NewCatalogService(api CatalogBackend, cache Cache, ttl time.Duration, logger *zap.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogService{api: api, cache: cache, ttl: ttl, logger: logger}
}

// Products returns the product listing visible to the session's role.
func (s *CatalogService) Products(ctx context.Context, claims *session.Claims) ([]domain.Product, error) {
	key := "catalog:products:" + claims.Role.String()
	if data, ok := s.cache.Get(ctx, key); ok {
		var products []domain.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	}

	products, err := s.api.Products(ctx, claims.AccessToken)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(products); err == nil {
		s.cache.Set(ctx, key, data, s.ttl)
	}
	return products, nil
}

// Categories returns the category tree. The tree is role-independent.
func (s *CatalogService) Categories(ctx context.Context, claims *session.Claims) ([]domain.Category, error) {
	const key = "catalog:categories"
	if data, ok := s.cache.Get(ctx, key); ok {
		var categories []domain.Category
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
		s.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
	}

	categories, err := s.api.Categories(ctx, claims.AccessToken)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(categories); err == nil {
		s.cache.Set(ctx, key, data, s.ttl)
	}
	return categories, nil
}

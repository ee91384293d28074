// Package application 目录应用服务
package application

import (
	"context"

	"github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

// CatalogService 目录查询门面
type CatalogService struct {
	repo domain.Repository
}

// NewCatalogService 创建目录应用服务实例
func NewCatalogService(repo domain.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

// ListShops 返回全部店铺
func (s *CatalogService) ListShops(ctx context.Context) ([]*domain.Shop, error) {
	return s.repo.ListShops(ctx)
}

// GetShop 按 ID 返回店铺
func (s *CatalogService) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	return s.repo.GetShop(ctx, id)
}

// ListProducts 按店铺/类目过滤商品
func (s *CatalogService) ListProducts(ctx context.Context, shopID, category string) ([]*domain.Product, error) {
	return s.repo.ListProducts(ctx, shopID, category)
}

// GetProduct 按 ID 返回商品
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

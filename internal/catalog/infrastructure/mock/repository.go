// Package mock 提供内存目录数据，模拟真实目录服务的加载延迟
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

// Repository 内存目录仓储实现
type Repository struct {
	shops    []*domain.Shop
	products []*domain.Product
	// 模拟加载延迟
	loadDelay time.Duration
}

// NewRepository 创建内存目录仓储，加载内置种子数据
func NewRepository(loadDelay time.Duration) *Repository {
	return &Repository{
		shops:     seedShops(),
		products:  seedProducts(),
		loadDelay: loadDelay,
	}
}

// wait 模拟目录服务的响应延迟，尊重 ctx 取消
func (r *Repository) wait(ctx context.Context) error {
	if r.loadDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(r.loadDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListShops 返回全部店铺
func (r *Repository) ListShops(ctx context.Context) ([]*domain.Shop, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	out := make([]*domain.Shop, len(r.shops))
	copy(out, r.shops)
	return out, nil
}

// GetShop 按 ID 返回店铺
func (r *Repository) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	for _, s := range r.shops {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("shop %s not found", id)
}

// ListProducts 按店铺/类目过滤商品
func (r *Repository) ListProducts(ctx context.Context, shopID, category string) ([]*domain.Product, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	var out []*domain.Product
	for _, p := range r.products {
		if shopID != "" && p.ShopID != shopID {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// GetProduct 按 ID 返回商品
func (r *Repository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	for _, p := range r.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("product %s not found", id)
}

func seedShops() []*domain.Shop {
	return []*domain.Shop{
		{
			ID:           "shop-001",
			Name:         "Квіткова Лавка",
			Rating:       4.8,
			Coordinates:  domain.Coordinates{Lat: 50.4501, Lng: 30.5234},
			DistanceKm:   2.3,
			DeliveryTime: 40,
		},
		{
			ID:           "shop-002",
			Name:         "Flower Point",
			Rating:       4.5,
			Coordinates:  domain.Coordinates{Lat: 50.4397, Lng: 30.5167},
			DistanceKm:   4.1,
			DeliveryTime: 55,
		},
		{
			ID:           "shop-003",
			Name:         "Троянда",
			Rating:       3.9,
			Coordinates:  domain.Coordinates{Lat: 50.4650, Lng: 30.5100},
			DistanceKm:   6.8,
			DeliveryTime: 65,
		},
		{
			ID:           "shop-004",
			Name:         "Green Atelier",
			Rating:       4.2,
			Coordinates:  domain.Coordinates{Lat: 50.4280, Lng: 30.5550},
			DistanceKm:   8.5,
			DeliveryTime: 70,
		},
	}
}

func seedProducts() []*domain.Product {
	return []*domain.Product{
		{
			ID: "prod-001", ShopID: "shop-001", Name: "Букет «Ранкова роса»",
			Price: decimal.NewFromInt(850), Stock: 12, IsAvailable: true,
			EstimatedDeliveryTime: 40, Category: "bouquets",
			Tags: []string{"roses", "bestseller"},
		},
		{
			ID: "prod-002", ShopID: "shop-001", Name: "101 червона троянда",
			Price: decimal.NewFromInt(3200), Stock: 3, IsAvailable: true,
			EstimatedDeliveryTime: 45, Category: "bouquets",
			Tags: []string{"roses", "premium"},
		},
		{
			ID: "prod-003", ShopID: "shop-001", Name: "Кошик «Весняний настрій»",
			Price: decimal.NewFromInt(1450), Stock: 5, IsAvailable: true,
			EstimatedDeliveryTime: 50, Category: "arrangements",
			Tags: []string{"basket", "tulips"},
		},
		{
			ID: "prod-004", ShopID: "shop-002", Name: "Монобукет з півоній",
			Price: decimal.NewFromInt(1100), Stock: 8, IsAvailable: true,
			EstimatedDeliveryTime: 55, Category: "bouquets",
			Tags: []string{"peonies", "seasonal"},
		},
		{
			ID: "prod-005", ShopID: "shop-002", Name: "Набір «Солодкий комплімент»",
			Price: decimal.NewFromInt(780), Stock: 15, IsAvailable: true,
			EstimatedDeliveryTime: 55, Category: "gifts",
			Tags: []string{"sweets", "addon"},
		},
		{
			ID: "prod-006", ShopID: "shop-002", Name: "Букет «Лавандові сни»",
			Price: decimal.NewFromInt(950), Stock: 0, IsAvailable: false,
			EstimatedDeliveryTime: 55, Category: "bouquets",
			Tags: []string{"lavender"},
		},
		{
			ID: "prod-007", ShopID: "shop-003", Name: "Орхідея фаленопсис",
			Price: decimal.NewFromInt(620), Stock: 20, IsAvailable: true,
			EstimatedDeliveryTime: 65, Category: "plants",
			Tags: []string{"orchid", "potted"},
		},
		{
			ID: "prod-008", ShopID: "shop-003", Name: "Композиція «Осінній вальс»",
			Price: decimal.NewFromInt(1680), Stock: 4, IsAvailable: true,
			EstimatedDeliveryTime: 70, Category: "arrangements",
			Tags: []string{"autumn", "premium"},
		},
		{
			ID: "prod-009", ShopID: "shop-004", Name: "Фікус лірата",
			Price: decimal.NewFromInt(890), Stock: 7, IsAvailable: true,
			EstimatedDeliveryTime: 70, Category: "plants",
			Tags: []string{"interior"},
		},
		{
			ID: "prod-010", ShopID: "shop-004", Name: "Букет «Білий шум»",
			Price: decimal.NewFromInt(1250), Stock: 6, IsAvailable: true,
			EstimatedDeliveryTime: 75, Category: "bouquets",
			Tags: []string{"white", "wedding"},
		},
		{
			ID: "prod-011", ShopID: "shop-004", Name: "Листівка ручної роботи",
			Price: decimal.NewFromInt(120), Stock: 50, IsAvailable: true,
			EstimatedDeliveryTime: 70, Category: "gifts",
			Tags: []string{"card", "addon"},
		},
		{
			ID: "prod-012", ShopID: "shop-001", Name: "Тюльпани мікс (25 шт)",
			Price: decimal.NewFromInt(690), Stock: 2, IsAvailable: true,
			EstimatedDeliveryTime: 40, Category: "bouquets",
			Tags: []string{"tulips", "spring"},
		},
	}
}

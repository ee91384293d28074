// Package mysql 提供目录的 MySQL 仓储实现
package mysql

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

// ShopModel MySQL 店铺表映射
type ShopModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
	ShopID       string    `gorm:"column:shop_id;type:varchar(36);uniqueIndex;not null"`
	Name         string    `gorm:"column:name;type:varchar(255);not null"`
	Rating       float64   `gorm:"column:rating;type:decimal(3,2)"`
	Lat          float64   `gorm:"column:lat;type:decimal(10,7)"`
	Lng          float64   `gorm:"column:lng;type:decimal(10,7)"`
	DistanceKm   float64   `gorm:"column:distance_km;type:decimal(6,2)"`
	DeliveryTime int       `gorm:"column:delivery_time;not null;default:0"`
}

func (ShopModel) TableName() string { return "shops" }

// ProductModel MySQL 商品表映射
type ProductModel struct {
	ID                    uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt             time.Time       `gorm:"column:created_at"`
	UpdatedAt             time.Time       `gorm:"column:updated_at"`
	ProductID             string          `gorm:"column:product_id;type:varchar(36);uniqueIndex;not null"`
	ShopID                string          `gorm:"column:shop_id;type:varchar(36);index;not null"`
	Name                  string          `gorm:"column:name;type:varchar(255);not null"`
	Price                 decimal.Decimal `gorm:"column:price;type:decimal(12,2);not null"`
	Stock                 int             `gorm:"column:stock;not null;default:0"`
	IsAvailable           bool            `gorm:"column:is_available;not null;default:true"`
	EstimatedDeliveryTime int             `gorm:"column:estimated_delivery_time;not null;default:0"`
	Category              string          `gorm:"column:category;type:varchar(100);index"`
	Tags                  string          `gorm:"column:tags;type:json"`
}

func (ProductModel) TableName() string { return "products" }

type catalogRepository struct{ db *gorm.DB }

// NewRepository 创建目录仓储实例
func NewRepository(db *gorm.DB) domain.Repository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListShops(ctx context.Context) ([]*domain.Shop, error) {
	var models []ShopModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Shop, 0, len(models))
	for i := range models {
		out = append(out, toShop(&models[i]))
	}
	return out, nil
}

func (r *catalogRepository) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	var m ShopModel
	if err := r.db.WithContext(ctx).Where("shop_id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toShop(&m), nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, shopID, category string) ([]*domain.Product, error) {
	q := r.db.WithContext(ctx).Model(&ProductModel{})
	if shopID != "" {
		q = q.Where("shop_id = ?", shopID)
	}
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var models []ProductModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(models))
	for i := range models {
		out = append(out, toProduct(&models[i]))
	}
	return out, nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var m ProductModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return toProduct(&m), nil
}

// mapping helpers

func toShop(m *ShopModel) *domain.Shop {
	return &domain.Shop{
		ID:           m.ShopID,
		Name:         m.Name,
		Rating:       m.Rating,
		Coordinates:  domain.Coordinates{Lat: m.Lat, Lng: m.Lng},
		DistanceKm:   m.DistanceKm,
		DeliveryTime: m.DeliveryTime,
	}
}

func toProduct(m *ProductModel) *domain.Product {
	var tags []string
	if m.Tags != "" {
		_ = json.Unmarshal([]byte(m.Tags), &tags)
	}
	return &domain.Product{
		ID:                    m.ProductID,
		ShopID:                m.ShopID,
		Name:                  m.Name,
		Price:                 m.Price,
		Stock:                 m.Stock,
		IsAvailable:           m.IsAvailable,
		EstimatedDeliveryTime: m.EstimatedDeliveryTime,
		Category:              m.Category,
		Tags:                  tags,
	}
}

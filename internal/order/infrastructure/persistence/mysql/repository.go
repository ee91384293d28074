// Package mysql 提供订单的 MySQL 仓储实现
package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cart "github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/order/domain"
)

// OrderModel MySQL 订单表映射
type OrderModel struct {
	ID                    uint            `gorm:"primaryKey;autoIncrement"`
	CreatedAt             time.Time       `gorm:"column:created_at"`
	UpdatedAt             time.Time       `gorm:"column:updated_at"`
	OrderID               string          `gorm:"column:order_id;type:varchar(36);uniqueIndex;not null"`
	CustomerID            string          `gorm:"column:customer_id;type:varchar(50);index;not null"`
	Items                 string          `gorm:"column:items;type:json;not null"`
	TotalAmount           decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null"`
	Status                string          `gorm:"column:status;type:varchar(20);index;not null"`
	Street                string          `gorm:"column:street;type:varchar(255)"`
	City                  string          `gorm:"column:city;type:varchar(100)"`
	PostalCode            string          `gorm:"column:postal_code;type:varchar(10)"`
	Lat                   float64         `gorm:"column:lat;type:decimal(10,7)"`
	Lng                   float64         `gorm:"column:lng;type:decimal(10,7)"`
	EstimatedDeliveryTime time.Time       `gorm:"column:estimated_delivery_time"`
	ActualDeliveryTime    *time.Time      `gorm:"column:actual_delivery_time"`
	CourierLat            *float64        `gorm:"column:courier_lat;type:decimal(10,7)"`
	CourierLng            *float64        `gorm:"column:courier_lng;type:decimal(10,7)"`
	CourierNearby         bool            `gorm:"column:courier_nearby;not null;default:false"`
	PaymentMethod         string          `gorm:"column:payment_method;type:varchar(20);not null"`
	DeliveryInstructions  string          `gorm:"column:delivery_instructions;type:varchar(500)"`
}

func (OrderModel) TableName() string { return "orders" }

type orderRepository struct{ db *gorm.DB }

// NewRepository 创建订单仓储实例
func NewRepository(db *gorm.DB) domain.Repository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Add(ctx context.Context, order *domain.Order) error {
	m, err := toModel(order)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *orderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var m OrderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return toOrder(&m)
}

func (r *orderRepository) List(ctx context.Context, customerID string) ([]*domain.Order, error) {
	q := r.db.WithContext(ctx).Model(&OrderModel{}).Order("created_at DESC")
	if customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}
	var models []OrderModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		o, err := toOrder(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	m, err := toModel(order)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("order_id = ?", order.ID).
		Updates(map[string]any{
			"status":               m.Status,
			"updated_at":           m.UpdatedAt,
			"actual_delivery_time": m.ActualDeliveryTime,
			"courier_lat":          m.CourierLat,
			"courier_lng":          m.CourierLng,
			"courier_nearby":       m.CourierNearby,
		}).Error
}

// mapping helpers

func toModel(o *domain.Order) (*OrderModel, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order items: %w", err)
	}
	m := &OrderModel{
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
		OrderID:               o.ID,
		CustomerID:            o.CustomerID,
		Items:                 string(items),
		TotalAmount:           o.TotalAmount,
		Status:                string(o.Status),
		Street:                o.DeliveryAddress.Street,
		City:                  o.DeliveryAddress.City,
		PostalCode:            o.DeliveryAddress.PostalCode,
		Lat:                   o.DeliveryAddress.Coordinates.Lat,
		Lng:                   o.DeliveryAddress.Coordinates.Lng,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		ActualDeliveryTime:    o.ActualDeliveryTime,
		CourierNearby:         o.CourierNearby,
		PaymentMethod:         string(o.PaymentMethod),
		DeliveryInstructions:  o.DeliveryInstructions,
	}
	if o.CourierLocation != nil {
		lat, lng := o.CourierLocation.Lat, o.CourierLocation.Lng
		m.CourierLat, m.CourierLng = &lat, &lng
	}
	return m, nil
}

func toOrder(m *OrderModel) (*domain.Order, error) {
	var items []cart.Item
	if err := json.Unmarshal([]byte(m.Items), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order items: %w", err)
	}
	o := &domain.Order{
		ID:          m.OrderID,
		CustomerID:  m.CustomerID,
		Items:       items,
		TotalAmount: m.TotalAmount,
		Status:      domain.Status(m.Status),
		DeliveryAddress: domain.Address{
			Street:      m.Street,
			City:        m.City,
			PostalCode:  m.PostalCode,
			Coordinates: catalog.Coordinates{Lat: m.Lat, Lng: m.Lng},
		},
		EstimatedDeliveryTime: m.EstimatedDeliveryTime,
		ActualDeliveryTime:    m.ActualDeliveryTime,
		CourierNearby:         m.CourierNearby,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
		PaymentMethod:         domain.PaymentMethod(m.PaymentMethod),
		DeliveryInstructions:  m.DeliveryInstructions,
	}
	if m.CourierLat != nil && m.CourierLng != nil {
		o.CourierLocation = &catalog.Coordinates{Lat: *m.CourierLat, Lng: *m.CourierLng}
	}
	return o, nil
}

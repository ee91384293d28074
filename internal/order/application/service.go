// Package application 订单应用服务
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
)

// OrderService 订单服务门面
type OrderService struct {
	repo      domain.Repository
	publisher EventPublisher
	now       func() time.Time
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// NewOrderService 创建订单应用服务实例；now 为 nil 时使用系统时钟
func NewOrderService(repo domain.Repository, publisher EventPublisher, now func() time.Time) *OrderService {
	if now == nil {
		now = time.Now
	}
	return &OrderService{repo: repo, publisher: publisher, now: now}
}

// Add 写入新订单（最新在前）
func (s *OrderService) Add(ctx context.Context, order *domain.Order) error {
	return s.repo.Add(ctx, order)
}

// Get 按 ID 返回订单
func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// List 返回客户的订单列表（最新在前）
func (s *OrderService) List(ctx context.Context, customerID string) ([]*domain.Order, error) {
	return s.repo.List(ctx, customerID)
}

// UpdateStatus 推进订单状态并返回更新后的订单
// 未知订单为 no-op（返回 nil 订单）；非法迁移返回错误；delivered 时写入实际送达时间。
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		logger.Warn(ctx, "status update for unknown order", "order_id", id)
		return nil, nil
	}

	if err := order.TransitionTo(status, s.now()); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}

	if err := s.repo.Update(ctx, order); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		event := domain.OrderStatusChangedEvent{
			OrderID:   order.ID,
			Status:    status,
			Timestamp: s.now(),
		}
		if err := s.publisher.Publish(ctx, "order.status.changed", order.CustomerID, event); err != nil {
			logger.Warn(ctx, "failed to publish order status event", "order_id", id, "error", err)
		}
	}
	return order, nil
}

// Package redisstore 基于 key→JSON 存储的订单仓储实现
package redisstore

import (
	"context"
	"sync"

	"github.com/wyfcoding/flowerdelivery/internal/order/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
)

const ordersKey = "orders"

// Repository 订单列表整体作为一个 JSON 值保存在固定 key 下，
// 最新订单在前。单写者，进程内用互斥锁串行化读改写。
type Repository struct {
	mu    sync.Mutex
	store storage.Store
}

// NewRepository 创建订单仓储实例
func NewRepository(store storage.Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) loadAll(ctx context.Context) []*domain.Order {
	var orders []*domain.Order
	r.store.GetJSON(ctx, ordersKey, &orders)
	return orders
}

// Add 前插新订单并落盘
func (r *Repository) Add(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := append([]*domain.Order{order}, r.loadAll(ctx)...)
	return r.store.SetJSON(ctx, ordersKey, orders)
}

// Get 按 ID 返回订单，未找到时返回 nil
func (r *Repository) Get(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, o := range r.loadAll(ctx) {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

// List 返回客户的订单（最新在前）；customerID 为空时返回全部
func (r *Repository) List(ctx context.Context, customerID string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.loadAll(ctx)
	if customerID == "" {
		return all, nil
	}
	var out []*domain.Order
	for _, o := range all {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

// Update 原地替换同 ID 的订单；未找到时为 no-op
func (r *Repository) Update(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders := r.loadAll(ctx)
	for i, o := range orders {
		if o.ID == order.ID {
			orders[i] = order
			return r.store.SetJSON(ctx, ordersKey, orders)
		}
	}
	return nil
}

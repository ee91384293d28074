// Package application 购物车应用服务
//
// 状态机语义：每个公开操作对应一次离散的 变更→重算→落盘 步骤，
// 操作之间由互斥锁保证原子，不会在重算中途被其它变更打断。
package application

import (
	"context"
	"sync"
	"time"

	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
	"github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	"github.com/wyfcoding/flowerdelivery/pkg/errorlog"
	"github.com/wyfcoding/flowerdelivery/pkg/logger"
	"github.com/wyfcoding/flowerdelivery/pkg/storage"
)

const cartKeyPrefix = "cart:"

// CartService 购物车服务
// 独占持有每个客户的购物车状态；快照在每次变更后同步写入存储，
// 启动后首次访问时读取一次，损坏数据兜底为空车。
type CartService struct {
	mu        sync.Mutex
	states    map[string]*domain.State
	store     storage.Store
	publisher domain.EventPublisher
	errors    errorlog.Recorder
}

// NewCartService 创建购物车服务实例
func NewCartService(store storage.Store, publisher domain.EventPublisher, errors errorlog.Recorder) *CartService {
	if publisher == nil {
		publisher = domain.NopPublisher{}
	}
	return &CartService{
		states:    make(map[string]*domain.State),
		store:     store,
		publisher: publisher,
		errors:    errors,
	}
}

// load 惰性加载客户的购物车状态（LOAD 语义）
// 调用方必须持有 s.mu。
func (s *CartService) load(ctx context.Context, customerID string) *domain.State {
	if st, ok := s.states[customerID]; ok {
		return st
	}

	st := domain.NewState()
	var items []domain.Item
	if s.store.GetJSON(ctx, cartKeyPrefix+customerID, &items) {
		st.Items = items
	}
	st.IsLoading = false
	st.Recompute()
	s.states[customerID] = st
	return st
}

// persist 将条目快照写入存储；失败降级为记录日志，不向调用方传播
func (s *CartService) persist(ctx context.Context, customerID string, st *domain.State) {
	if st.IsLoading {
		return
	}
	if err := s.store.SetJSON(ctx, cartKeyPrefix+customerID, st.Items); err != nil {
		logger.Warn(ctx, "failed to persist cart snapshot", "customer_id", customerID, "error", err)
		if s.errors != nil {
			s.errors.Record("cart.persist", err)
		}
	}
}

// AddItem 加购商品
// 校验失败时购物车不变，仅记录 LastError 并同步返回校验结果；
// 成功时合并数量或追加条目，重算派生状态并落盘。全或无。
func (s *CartService) AddItem(ctx context.Context, customerID string, product *catalog.Product, qty int) []domain.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)

	if errs := domain.ValidateAddToCart(product, qty, st.Items); len(errs) > 0 {
		st.LastError = errs[0].Message
		return errs
	}

	st.Add(*product, qty)
	st.LastError = ""
	st.Recompute()
	s.persist(ctx, customerID, st)

	s.publish(ctx, "cart.item.added", customerID, domain.CartItemAddedEvent{
		CustomerID: customerID,
		ProductID:  product.ID,
		Quantity:   qty,
		Timestamp:  time.Now(),
	})
	return nil
}

// RemoveItem 移除商品
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)
	st.Remove(productID)
	st.Recompute()
	s.persist(ctx, customerID, st)

	s.publish(ctx, "cart.item.removed", customerID, domain.CartItemRemovedEvent{
		CustomerID: customerID,
		ProductID:  productID,
		Timestamp:  time.Now(),
	})
}

// UpdateQuantity 直接设置商品数量，qty ≤ 0 等价于移除
// 与 AddItem 不同，这里不做阻断式校验：超限在下一次重算时
// 以错误/警告形式出现在 Validation 中。
func (s *CartService) UpdateQuantity(ctx context.Context, customerID, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)
	st.SetQuantity(productID, qty)
	st.Recompute()
	s.persist(ctx, customerID, st)

	s.publish(ctx, "cart.quantity.updated", customerID, domain.CartQuantityUpdatedEvent{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   qty,
		Timestamp:  time.Now(),
	})
}

// Clear 清空购物车并重置派生状态
func (s *CartService) Clear(ctx context.Context, customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)
	st.Clear()
	st.Recompute()
	s.persist(ctx, customerID, st)

	s.publish(ctx, "cart.cleared", customerID, domain.CartClearedEvent{
		CustomerID: customerID,
		Timestamp:  time.Now(),
	})
}

// ItemQuantity 返回商品在购物车中的数量
func (s *CartService) ItemQuantity(ctx context.Context, customerID, productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, customerID).ItemQuantity(productID)
}

// IsInCart 判断商品是否已加购
func (s *CartService) IsInCart(ctx context.Context, customerID, productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, customerID).Contains(productID)
}

// Validate 重校验整车，fresh 不为空时对照最新商品数据
func (s *CartService) Validate(ctx context.Context, customerID string, fresh []*catalog.Product) domain.ValidationResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)
	st.Validation = domain.ValidateItems(st.Items, fresh)
	return st.Validation
}

// ClearError 清除最近一次操作的错误信息
func (s *CartService) ClearError(ctx context.Context, customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(ctx, customerID).LastError = ""
}

// ReadyForCheckout 判断购物车是否可进入结算
func (s *CartService) ReadyForCheckout(ctx context.Context, customerID string) (bool, []domain.ValidationError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.ReadyForCheckout(s.load(ctx, customerID).Items)
}

// State 返回购物车状态的拷贝
func (s *CartService) State(ctx context.Context, customerID string) domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)
	out := *st
	out.Items = st.SnapshotItems()
	return out
}

// SnapshotItems 返回条目的独立拷贝，结算构建订单时使用
func (s *CartService) SnapshotItems(ctx context.Context, customerID string) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, customerID).SnapshotItems()
}

// Restore 用给定条目整体替换购物车，结算补偿时使用
func (s *CartService) Restore(ctx context.Context, customerID string, items []domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.load(ctx, customerID)
	st.Items = items
	st.Recompute()
	s.persist(ctx, customerID, st)
}

func (s *CartService) publish(ctx context.Context, topic, key string, event any) {
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "failed to publish cart event", "topic", topic, "error", err)
	}
}

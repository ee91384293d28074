// Package application 通知管理器
//
// 以显式注入的实例替代全局单例：进程内持有一个固定容量的
// 环形缓冲，消费下单/状态变更信号并向外暴露最近的通知。
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wyfcoding/flowerdelivery/internal/notification/domain"
	orderdomain "github.com/wyfcoding/flowerdelivery/internal/order/domain"
)

// Manager 通知管理器
type Manager struct {
	mu      sync.Mutex
	entries []domain.Notification
	next    int
	size    int
	cap     int
	now     func() time.Time
}

// NewManager 创建容量为 capacity 的通知管理器；now 为 nil 时使用系统时钟
func NewManager(capacity int, now func() time.Time) *Manager {
	if capacity <= 0 {
		capacity = 50
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		entries: make([]domain.Notification, capacity),
		cap:     capacity,
		now:     now,
	}
}

// OrderPlaced 消费下单完成信号
func (m *Manager) OrderPlaced(ctx context.Context, event orderdomain.OrderPlacedEvent) {
	m.Record(domain.Notification{
		Kind:       domain.KindOrderPlaced,
		CustomerID: event.CustomerID,
		OrderID:    event.OrderID,
		Message: fmt.Sprintf("Order %s confirmed, estimated delivery %s",
			event.OrderID, event.EstimatedDelivery.Format("15:04")),
	})
}

// Record 记录一条通知
func (m *Manager) Record(n domain.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.entries[m.next] = n
	m.next = (m.next + 1) % m.cap
	if m.size < m.cap {
		m.size++
	}
}

// Recent 返回最近 n 条通知，新的在前
func (m *Manager) Recent(n int) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > m.size {
		n = m.size
	}
	out := make([]domain.Notification, 0, n)
	for i := 0; i < n; i++ {
		idx := (m.next - 1 - i + m.cap*2) % m.cap
		out = append(out, m.entries[idx])
	}
	return out
}

// Clear 清空通知
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next = 0
	m.size = 0
}

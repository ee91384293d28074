// Package domain 包含订单的领域模型与状态机
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	cart "github.com/wyfcoding/flowerdelivery/internal/cart/domain"
	catalog "github.com/wyfcoding/flowerdelivery/internal/catalog/domain"
)

// Status 订单状态
type Status string

const (
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Address 配送地址
type Address struct {
	Street      string              `json:"street"`
	City        string              `json:"city"`
	PostalCode  string              `json:"postal_code"`
	Coordinates catalog.Coordinates `json:"coordinates"`
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCard      PaymentMethod = "card"
	PaymentApplePay  PaymentMethod = "apple_pay"
	PaymentGooglePay PaymentMethod = "google_pay"
	PaymentCash      PaymentMethod = "cash"
)

// Order 订单实体
// Items 是下单时刻购物车条目的冻结拷贝，后续目录变化不影响已下单数据。
// 订单只追加（最新在前）与原地改状态，从不删除。
type Order struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	// 下单时刻的条目快照
	Items           []cart.Item     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          Status          `json:"status"`
	DeliveryAddress Address         `json:"delivery_address"`
	// 预计送达的绝对时间
	EstimatedDeliveryTime time.Time  `json:"estimated_delivery_time"`
	ActualDeliveryTime    *time.Time `json:"actual_delivery_time,omitempty"`
	// 仅在 out_for_delivery 期间存在
	CourierLocation *catalog.Coordinates `json:"courier_location,omitempty"`
	// 配送员接近目的地的标记
	CourierNearby        bool          `json:"courier_nearby,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	DeliveryInstructions string        `json:"delivery_instructions,omitempty"`
}

// transitions 正向推进的合法状态迁移；cancelled 只能从 confirmed 进入
var transitions = map[Status][]Status{
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery},
	StatusOutForDelivery: {StatusDelivered},
}

// IsTerminal 判断状态是否为终态（没有后续合法迁移）
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo 判断状态迁移是否合法
func (o *Order) CanTransitionTo(next Status) bool {
	for _, s := range transitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo 推进订单状态
// delivered 时写入实际送达时间；离开 out_for_delivery 后清除配送员位置。
func (o *Order) TransitionTo(next Status, now time.Time) error {
	if !o.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition %s → %s", o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	if next == StatusDelivered {
		t := now
		o.ActualDeliveryTime = &t
	}
	if next != StatusOutForDelivery {
		o.CourierLocation = nil
		o.CourierNearby = false
	}
	return nil
}

// Repository 订单仓储接口
// Add 前插（最新在前）；不存在删除操作。
type Repository interface {
	Add(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, customerID string) ([]*Order, error)
	Update(ctx context.Context, order *Order) error
}

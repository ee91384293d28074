package domain

import "time"

// OrderPlacedEvent 下单完成事件，通知/PWA 侧消费
type OrderPlacedEvent struct {
	OrderID           string    `json:"order_id"`
	CustomerID        string    `json:"customer_id"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
	Timestamp         time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

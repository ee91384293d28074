package domain

import "time"

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Timestamp  time.Time `json:"timestamp"`
}

// CartItemRemovedEvent 购物车移除商品事件
type CartItemRemovedEvent struct {
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// CartQuantityUpdatedEvent 购物车数量变更事件
type CartQuantityUpdatedEvent struct {
	CustomerID string    `json:"customer_id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	Timestamp  time.Time `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	CustomerID string    `json:"customer_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// Package domain 包含通知的领域模型
package domain

import "time"

// Kind 通知类型
type Kind string

const (
	KindOrderPlaced   Kind = "order_placed"
	KindOrderStatus   Kind = "order_status"
	KindCourierNearby Kind = "courier_nearby"
)

// Notification 一条面向客户的通知
type Notification struct {
	Kind       Kind      `json:"kind"`
	CustomerID string    `json:"customer_id"`
	OrderID    string    `json:"order_id,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

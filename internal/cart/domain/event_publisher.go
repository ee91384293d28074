package domain

import "context"

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// NopPublisher 空实现，事件发布未启用或测试时使用
type NopPublisher struct{}

// Publish 丢弃事件
func (NopPublisher) Publish(ctx context.Context, topic, key string, event any) error {
	return nil
}

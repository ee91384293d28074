// Package storage 提供 key→JSON 的持久化抽象，读取容忍缺失与损坏数据
package storage

import "context"

// Store key→JSON 存储接口
// GetJSON 在 key 缺失或值无法解析时返回 false，调用方使用自备的默认值，
// 损坏的数据不会以错误形式向上传播。
type Store interface {
	// GetJSON 读取并反序列化 key 对应的值；返回是否命中
	GetJSON(ctx context.Context, key string, dest any) bool
	// SetJSON 序列化并写入 key 对应的值
	SetJSON(ctx context.Context, key string, value any) error
	// Remove 删除 key
	Remove(ctx context.Context, key string) error
}

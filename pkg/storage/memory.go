package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wyfcoding/flowerdelivery/pkg/logger"
)

// MemoryStore 进程内 key→JSON 存储实现，用于测试与无 Redis 的本地运行
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory 创建内存存储实例
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// GetJSON 读取并反序列化 key 对应的值；缺失或损坏时返回 false
func (s *MemoryStore) GetJSON(ctx context.Context, key string, dest any) bool {
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logger.Warn(ctx, "corrupt value in storage, falling back to default", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON 序列化并写入 key 对应的值
func (s *MemoryStore) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
	return nil
}

// Remove 删除 key
func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// SetRaw 直接写入原始字节，测试损坏数据兜底时使用
func (s *MemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	s.data[key] = data
	s.mu.Unlock()
}

// Package errorlog 提供显式注入的错误记录服务，替代全局单例错误处理器
package errorlog

import (
	"sync"
	"time"
)

// Entry 一条错误记录
type Entry struct {
	Source  string    `json:"source"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Recorder 错误记录接口
type Recorder interface {
	Record(source string, err error)
	Recent(n int) []Entry
	Clear()
}

// RingBuffer 固定容量的环形错误缓冲，线程安全
type RingBuffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	size    int
	cap     int
	now     func() time.Time
}

// NewRingBuffer 创建容量为 capacity 的环形缓冲
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &RingBuffer{
		entries: make([]Entry, capacity),
		cap:     capacity,
		now:     time.Now,
	}
}

// Record 记录一条错误
func (rb *RingBuffer) Record(source string, err error) {
	if err == nil {
		return
	}
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.next] = Entry{
		Source:  source,
		Message: err.Error(),
		Time:    rb.now(),
	}
	rb.next = (rb.next + 1) % rb.cap
	if rb.size < rb.cap {
		rb.size++
	}
}

// Recent 返回最近 n 条记录，新的在前
func (rb *RingBuffer) Recent(n int) []Entry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if n <= 0 || n > rb.size {
		n = rb.size
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (rb.next - 1 - i + rb.cap*2) % rb.cap
		out = append(out, rb.entries[idx])
	}
	return out
}

// Clear 清空缓冲
func (rb *RingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.next = 0
	rb.size = 0
}

package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket 基于令牌桶算法实现 RateLimiter，
// 允许在桶容量范围内的突发请求，超出后按固定速率放行。
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64 // 每秒生成的令牌数
	capacity float64
	tokens   float64
	lastFill time.Time
}

// NewTokenBucket 创建令牌桶，rate 为每秒生成的令牌数，capacity 为突发上限。
// 初始时桶是满的。
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:     rate,
		capacity: float64(capacity),
		tokens:   float64(capacity),
		lastFill: time.Now(),
	}
}

// Allow 按流逝时间补充令牌后尝试消费一个令牌。
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(tb.lastFill); elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastFill = now
	}

	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

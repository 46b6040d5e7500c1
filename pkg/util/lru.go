package util

import (
	"container/list"
	"fmt"
	"sync"
	"time"
)

// CacheConfig 配置 LRU 缓存的容量与过期行为。
type CacheConfig[K comparable, V any] struct {
	// Capacity 是缓存的最大条目数，必须大于 0。
	Capacity int
	// TTL 是条目的存活时间，为 0 时永不过期。
	TTL time.Duration
}

type cacheItem[K comparable, V any] struct {
	key      K
	value    V
	deadline time.Time
}

// LRUCache 是线程安全的泛型 LRU 缓存，支持可选的 TTL 被动淘汰。
// 意图分类器用它缓存近期消息的分类结果，避免重复调用 LLM。
type LRUCache[K comparable, V any] struct {
	config CacheConfig[K, V]
	order  *list.List
	items  map[K]*list.Element
	lock   sync.RWMutex
}

// NewWithConfig 按配置创建缓存实例。
func NewWithConfig[K comparable, V any](config CacheConfig[K, V]) (*LRUCache[K, V], error) {
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("必须设置大于 0 的 Capacity")
	}
	return &LRUCache[K, V]{
		config: config,
		order:  list.New(),
		items:  make(map[K]*list.Element),
	}, nil
}

// Get 返回键对应的值；命中会刷新其新鲜度，已过期的条目在此处被动移除。
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	var zero V
	element, ok := c.items[key]
	if !ok {
		return zero, false
	}

	item := element.Value.(*cacheItem[K, V])
	if c.config.TTL > 0 && time.Now().After(item.deadline) {
		c.remove(element)
		return zero, false
	}

	c.order.MoveToFront(element)
	return item.value, true
}

// Put 写入或更新键值对，写入同时重置 TTL，超出容量时淘汰最久未使用的条目。
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	var deadline time.Time
	if c.config.TTL > 0 {
		deadline = time.Now().Add(c.config.TTL)
	}

	if element, ok := c.items[key]; ok {
		item := element.Value.(*cacheItem[K, V])
		item.value = value
		item.deadline = deadline
		c.order.MoveToFront(element)
	} else {
		c.items[key] = c.order.PushFront(&cacheItem[K, V]{
			key:      key,
			value:    value,
			deadline: deadline,
		})
	}

	for c.order.Len() > c.config.Capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// remove 从链表和索引中删除条目，调用方需持有锁。
func (c *LRUCache[K, V]) remove(e *list.Element) {
	c.order.Remove(e)
	delete(c.items, e.Value.(*cacheItem[K, V]).key)
}

// Len 返回当前缓存中的条目数量。
func (c *LRUCache[K, V]) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.order.Len()
}

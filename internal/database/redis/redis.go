package redis

import (
	"context"
	"fmt"
	"log"
	"sync"

	"wa_scheduler/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient 初始化并返回全局唯一的 Redis 客户端。
// Redis 承担 webhook 消息去重（MessageSid SETNX），连接在进程内只建立一次。
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		// 启动时 Ping 一次，配置错误尽早暴露。
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			initErr = fmt.Errorf("无法连接到 Redis: %w", err)
			return
		}

		log.Println("✅ 成功连接到 Redis!")
		client = rdb
	})

	return client, initErr
}

// Close 关闭 Redis 连接，进程退出前调用。
func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

// HealthCheck 检查 Redis 连接的健康状况，供健康检查接口使用。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("Redis 客户端未初始化")
	}
	return client.Ping(ctx).Err()
}

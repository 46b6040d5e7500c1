package api

import (
	"net/http"

	"wa_scheduler/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 在入站消息路由上应用限流。
// 超出速率的请求直接返回 429，不进入消息管道。
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Next()
	}
}

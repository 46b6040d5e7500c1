package ratelimiter

// RateLimiter 是限流器的通用接口，用于保护 webhook 等入口不被突发流量打垮。
type RateLimiter interface {
	// Allow 返回当前请求是否放行。
	Allow() bool
}

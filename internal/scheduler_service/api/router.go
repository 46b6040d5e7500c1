package api

import (
	"wa_scheduler/internal/config"
	"wa_scheduler/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, mwCfg *config.MiddlewareConfig) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	{
		// OAuth 授权流程路由组
		auth := apiV1.Group("/auth")
		{
			auth.GET("/google", h.StartGoogleAuth)
			auth.GET("/google/callback", h.HandleGoogleCallback)
			auth.GET("/todoist", h.StartTodoistAuth)
			auth.GET("/todoist/callback", h.HandleTodoistCallback)
		}

		webhook := apiV1.Group("/webhook")
		if mwCfg.RateLimiter.Enabled {
			tb := ratelimiter.NewTokenBucket(
				mwCfg.RateLimiter.TokenBucket.Rate,
				mwCfg.RateLimiter.TokenBucket.Capacity,
			)
			webhook.Use(RateLimitMiddleware(tb))
		}
		{
			webhook.POST("/whatsapp", h.HandleWhatsAppWebhook)
		}

		meetings := apiV1.Group("/meetings")
		{
			meetings.POST("/:id/cancel", h.CancelMeeting)
		}
	}

	return r
}

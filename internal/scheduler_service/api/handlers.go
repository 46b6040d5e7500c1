package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"wa_scheduler/internal/calendar"
	"wa_scheduler/internal/scheduler_service/service"
	"wa_scheduler/internal/scheduler_service/store"
	"wa_scheduler/internal/todoist"
	"wa_scheduler/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// dedupeTTL 限定 Twilio 消息去重键的保留时长。Twilio 的重试窗口远小于
// 24 小时，过期后重复的 MessageSid 已不可能出现。
const dedupeTTL = 24 * time.Hour

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service      *service.Service
	users        *store.Store
	gcal         *calendar.GoogleCalendar
	todoistOAuth *todoist.OAuthConfig
	redis        *redis.Client
	log          *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(
	s *service.Service,
	users *store.Store,
	gcal *calendar.GoogleCalendar,
	todoistOAuth *todoist.OAuthConfig,
	rdb *redis.Client,
	log *logger.Logger,
) *Handler {
	return &Handler{
		service:      s,
		users:        users,
		gcal:         gcal,
		todoistOAuth: todoistOAuth,
		redis:        rdb,
		log:          log,
	}
}

// --- WhatsApp Webhook ---

// HandleWhatsAppWebhook 处理 Twilio 的入站消息回调。
// Twilio 以 form-encoded 方式投递，期望收到 TwiML 格式的回复。
func (h *Handler) HandleWhatsAppWebhook(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")
	messageSID := c.PostForm("MessageSid")

	// Twilio 的 From 形如 "whatsapp:+212612345678"，去掉通道前缀得到手机号。
	phone := strings.TrimPrefix(from, "whatsapp:")
	if phone == "" {
		c.String(http.StatusBadRequest, "missing From")
		return
	}

	// Twilio 在未收到 2xx 时会重试投递。用 MessageSid 做幂等键，
	// 重复投递直接回空 TwiML，不再触发第二次编排。
	if messageSID != "" && h.isDuplicate(c.Request.Context(), messageSID) {
		h.log.WithUser(phone).WithPayload(map[string]interface{}{"message_sid": messageSID}).Info("重复投递的消息，直接忽略")
		c.Data(http.StatusOK, "application/xml", []byte(emptyTwiML()))
		return
	}

	reply := h.service.HandleMessage(c.Request.Context(), phone, body)

	c.Data(http.StatusOK, "application/xml", []byte(messageTwiML(reply)))
}

// isDuplicate 用 Redis SETNX 判断某条消息是否已经处理过。
// Redis 不可用时放行，宁可重复处理也不丢消息。
func (h *Handler) isDuplicate(ctx context.Context, messageSID string) bool {
	key := "twilio:sid:" + messageSID
	ok, err := h.redis.SetNX(ctx, key, 1, dedupeTTL).Result()
	if err != nil {
		h.log.WithError(err).Warn("消息去重检查失败，按首次投递处理")
		return false
	}
	return !ok
}

// emptyTwiML 返回不包含任何回复消息的 TwiML 文档。
func emptyTwiML() string {
	return `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`
}

// messageTwiML 把回复文本包装为 TwiML 文档。
func messageTwiML(reply string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?><Response><Message>%s</Message></Response>`, escapeXML(reply))
}

// escapeXML 转义回复文本中的 XML 特殊字符。
func escapeXML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(s)
}

// --- Meeting Management ---

// CancelMeetingRequest 定义了取消会议请求的 JSON 结构。
type CancelMeetingRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// CancelMeeting 取消指定 ID 的会议。对已取消的会议重复调用仍返回成功。
func (h *Handler) CancelMeeting(c *gin.Context) {
	meetingIDStr := c.Param("id")
	meetingID, err := strconv.ParseUint(meetingIDStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的会议 ID 格式"})
		return
	}

	var req CancelMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meeting, err := h.service.CancelMeeting(c.Request.Context(), req.Phone, uint(meetingID))
	if err != nil {
		if err == store.ErrMeetingNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "会议不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "会议已取消", "meeting_id": meeting.ID})
}

// --- OAuth Handlers ---

// StartGoogleAuth 生成 Google 授权链接并重定向。
// state 携带手机号，回调时据此定位用户。
func (h *Handler) StartGoogleAuth(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 phone 参数"})
		return
	}
	c.Redirect(http.StatusFound, h.gcal.AuthCodeURL(phone))
}

// HandleGoogleCallback 处理 Google OAuth 回调，保存 refresh token。
func (h *Handler) HandleGoogleCallback(c *gin.Context) {
	code := c.Query("code")
	phone := c.Query("state")
	if code == "" || phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 code 或 state 参数"})
		return
	}

	refreshToken, err := h.gcal.Exchange(c.Request.Context(), code)
	if err != nil {
		h.log.WithUser(phone).WithError(err).Error("Google 授权码兑换失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "授权失败，请重试"})
		return
	}

	if err := h.users.SaveGoogleToken(phone, refreshToken); err != nil {
		h.log.WithUser(phone).WithError(err).Error("Google 凭证保存失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "凭证保存失败"})
		return
	}

	c.String(http.StatusOK, "Google Calendar connected! You can now schedule meetings via WhatsApp.")
}

// StartTodoistAuth 生成 Todoist 授权链接并重定向。
func (h *Handler) StartTodoistAuth(c *gin.Context) {
	phone := c.Query("phone")
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 phone 参数"})
		return
	}
	c.Redirect(http.StatusFound, h.todoistOAuth.AuthCodeURL(phone))
}

// HandleTodoistCallback 处理 Todoist OAuth 回调，保存访问令牌。
func (h *Handler) HandleTodoistCallback(c *gin.Context) {
	code := c.Query("code")
	phone := c.Query("state")
	if code == "" || phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 code 或 state 参数"})
		return
	}

	token, err := h.todoistOAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.log.WithUser(phone).WithError(err).Error("Todoist 授权码兑换失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "授权失败，请重试"})
		return
	}

	if err := h.users.SaveTodoistToken(phone, token); err != nil {
		h.log.WithUser(phone).WithError(err).Error("Todoist 凭证保存失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "凭证保存失败"})
		return
	}

	c.String(http.StatusOK, "Todoist connected! Meeting reminders will be created automatically.")
}

// --- Health ---

// Root 返回服务标识。
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": "wa_scheduler", "status": "running"})
}

// Health 返回健康状态。
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

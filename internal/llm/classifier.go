package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wa_scheduler/internal/models"
	"wa_scheduler/pkg/logger"
	"wa_scheduler/pkg/util"
)

// classifyPrompt 是意图抽取的固定提示词模板。
// 相对日期（"tomorrow"、"next Tuesday"）由模型侧解析为绝对日期，本组件不做日期推理。
const classifyPrompt = `Analyze this WhatsApp message and extract scheduling information in JSON format.

Today's date: %s
Message: "%s"

Extract:
{
    "intent": "schedule|cancel|reschedule|info|other",
    "date": "YYYY-MM-DD or null",
    "time": "HH:MM or null",
    "timezone": "timezone or null",
    "duration_minutes": number or null,
    "meeting_type": "virtual|in-person or null",
    "location": "location string or null",
    "participants": ["email1", "email2"] or null,
    "title": "meeting title or null",
    "confidence": 0.0-1.0
}

Rules:
- If date is relative (like "tomorrow", "next week"), convert to actual date
- Default duration is 30 minutes if not specified
- Set confidence based on how clear the request is`

const classifySystem = "You are a scheduling assistant. Always respond with valid JSON only."

// IntentClassifier 将一条原始消息转换为结构化的调度意图。
// 外部分类能力的任何失败（超时、非 JSON 输出）都会降级为 kind=other、
// confidence=0，从不向调用方抛出错误：无法解析的意图不能让管道崩溃。
type IntentClassifier struct {
	llm             LLM
	cache           *util.LRUCache[string, models.Intent]
	defaultTimezone string
	defaultDuration int
	log             *logger.Logger
}

// NewIntentClassifier 创建一个意图分类器。
// 分类结果按消息原文做短 TTL 缓存，重复投递的 webhook 不会重复调用模型。
func NewIntentClassifier(l LLM, defaultTimezone string, defaultDuration int, log *logger.Logger) *IntentClassifier {
	cache, _ := util.NewWithConfig(util.CacheConfig[string, models.Intent]{
		Capacity: 256,
		TTL:      2 * time.Minute,
	})
	return &IntentClassifier{
		llm:             l,
		cache:           cache,
		defaultTimezone: defaultTimezone,
		defaultDuration: defaultDuration,
		log:             log,
	}
}

// Extract 从消息中抽取调度意图。永不返回错误：失败时返回降级意图。
func (c *IntentClassifier) Extract(ctx context.Context, message string) *models.Intent {
	if cached, ok := c.cache.Get(message); ok {
		intent := cached
		return &intent
	}

	req := &models.GenerateContentRequest{
		System:      classifySystem,
		Prompt:      fmt.Sprintf(classifyPrompt, time.Now().Format("2006-01-02"), message),
		Temperature: 0.1,
	}

	resp, err := c.llm.GenerateContent(ctx, req)
	if err != nil {
		c.log.WithError(err).Warn("意图分类调用失败，降级为 other")
		return c.fallbackIntent()
	}

	intent, err := c.parseIntent(resp.Text)
	if err != nil {
		c.log.WithError(err).WithPayload(map[string]interface{}{"raw": resp.Text}).Warn("意图 JSON 解析失败，降级为 other")
		return c.fallbackIntent()
	}

	c.applyDefaults(intent)
	c.cache.Put(message, *intent)
	return intent
}

// parseIntent 解析模型输出的 JSON。模型偶尔会包一层 Markdown 代码块，先剥掉。
func (c *IntentClassifier) parseIntent(raw string) (*models.Intent, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var intent models.Intent
	if err := json.Unmarshal([]byte(text), &intent); err != nil {
		return nil, fmt.Errorf("unmarshal intent: %w", err)
	}

	switch intent.Kind {
	case models.IntentSchedule, models.IntentCancel, models.IntentReschedule, models.IntentInfo, models.IntentOther:
	default:
		// 未知的意图值按无法识别处理。
		intent.Kind = models.IntentOther
	}
	return &intent, nil
}

// applyDefaults 填充缺省的时区与时长。
func (c *IntentClassifier) applyDefaults(intent *models.Intent) {
	if intent.Timezone == "" {
		intent.Timezone = c.defaultTimezone
	}
	if intent.DurationMinutes == 0 {
		intent.DurationMinutes = c.defaultDuration
	}
}

// fallbackIntent 返回降级意图：kind=other, confidence=0。
func (c *IntentClassifier) fallbackIntent() *models.Intent {
	return &models.Intent{
		Kind:       models.IntentOther,
		Timezone:   c.defaultTimezone,
		Confidence: 0.0,
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wa_scheduler/internal/llm"
	"wa_scheduler/internal/models"
	"wa_scheduler/pkg/logger"
)

// contextualSystem 是自由回复路径的系统提示词。
const contextualSystem = "You are a helpful scheduling assistant with memory of past interactions."

// contextualFallback 在语言模型不可用时兜底，系统绝不能让消息没有回音。
const contextualFallback = "I'm here to help with your scheduling needs. What would you like to do?"

// Composer 把 (意图, 富化上下文, 编排结果) 转换为面向用户的自然语言回复。
// 结构化路径走固定模板；无结构化路径可走时才调用语言模型，模型失败时
// 回退到固定文案。
type Composer struct {
	generator llm.LLM
	log       *logger.Logger
}

// NewComposer 创建一个回复生成器。
func NewComposer(generator llm.LLM, log *logger.Logger) *Composer {
	return &Composer{generator: generator, log: log}
}

// MissingFields 生成字段补全提示，按消息顺序精确列出缺失的字段名。
func (c *Composer) MissingFields(missing []string, hasHistory bool) string {
	fields := strings.Join(missing, ", ")
	if hasHistory {
		return fmt.Sprintf("I'd be happy to schedule that meeting! Based on your usual preferences, could you please provide the %s?", fields)
	}
	return fmt.Sprintf("I'd be happy to schedule that meeting! Could you please provide the %s?", fields)
}

// ScheduleSuccess 生成预定成功的确认，回显解析出的日期/时间/地点。
func (c *Composer) ScheduleSuccess(intent *models.Intent) string {
	meetingType := intent.MeetingType
	if meetingType == "" {
		meetingType = "meeting"
	}
	locationText := ""
	if intent.Location != "" {
		locationText = " at " + intent.Location
	}
	return fmt.Sprintf("✅ Perfect! I've scheduled your %s for %s at %s%s. You'll see it in Google Calendar and get a Todoist reminder on the day.",
		meetingType, intent.Date, intent.Time, locationText)
}

// ScheduleFailure 生成预定失败的说明，回显编排器报告的原因。
func (c *Composer) ScheduleFailure(reason string) string {
	return fmt.Sprintf("❌ Sorry, I couldn't create the meeting: %s", reason)
}

// CancelPrompt 列出即将到来的会议并询问要取消哪一个，至多 3 条。
func (c *Composer) CancelPrompt(ectx *models.EnrichedContext) string {
	upcoming := ectx.UpcomingMeetings(3)
	if len(upcoming) == 0 {
		return "I'll help you cancel a meeting. Could you tell me which meeting you'd like to cancel?"
	}
	return fmt.Sprintf("I can help you cancel a meeting. Here are your upcoming meetings:\n\n%s\n\nWhich one would you like to cancel?",
		bulletList(upcoming))
}

// ReschedulePrompt 列出即将到来的会议并询问要改期哪一个以及新时间，至多 3 条。
func (c *Composer) ReschedulePrompt(ectx *models.EnrichedContext) string {
	upcoming := ectx.UpcomingMeetings(3)
	if len(upcoming) == 0 {
		return "I'll help you reschedule. Which meeting would you like to move, and what's the new time?"
	}
	return fmt.Sprintf("I can help you reschedule a meeting. Here are your upcoming meetings:\n\n%s\n\nWhich one would you like to reschedule, and what's the new time?",
		bulletList(upcoming))
}

// InfoReply 列出即将到来的会议，至多 5 条。
func (c *Composer) InfoReply(ectx *models.EnrichedContext) string {
	if len(ectx.Meetings) == 0 {
		return "I don't see any meetings in your history yet. Would you like to schedule your first meeting?"
	}
	upcoming := ectx.UpcomingMeetings(5)
	if len(upcoming) == 0 {
		return "You don't have any upcoming meetings scheduled. Would you like to schedule one?"
	}

	var lines []string
	for _, m := range upcoming {
		location := m.Location
		if location == "" {
			location = "No location"
		}
		lines = append(lines, fmt.Sprintf("📅 %s\n   %s - %s", m.Title, m.StartTime.Format("2006-01-02 15:04"), location))
	}
	return fmt.Sprintf("Here are your upcoming meetings:\n\n%s\n\nNeed help with any of these?", strings.Join(lines, "\n"))
}

// CancelConfirmation 确认一次已执行的取消。
func (c *Composer) CancelConfirmation(meeting *models.Meeting) string {
	return fmt.Sprintf("✅ Done! I've cancelled \"%s\" on %s.", meeting.Title, meeting.StartTime.Format("2006-01-02"))
}

// Contextual 用语言模型生成上下文相关的自由回复；失败时回退固定文案。
func (c *Composer) Contextual(ctx context.Context, ectx *models.EnrichedContext) string {
	prompt := c.buildContextualPrompt(ectx)

	genCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	resp, err := c.generator.GenerateContent(genCtx, &models.GenerateContentRequest{
		System:      contextualSystem,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err != nil {
		c.log.WithUser(ectx.PhoneNumber).WithError(err).Warn("自由回复生成失败，使用固定文案")
		return contextualFallback
	}
	if strings.TrimSpace(resp.Text) == "" {
		return contextualFallback
	}
	return strings.TrimSpace(resp.Text)
}

// buildContextualPrompt 把富化上下文序列化进提示词。
func (c *Composer) buildContextualPrompt(ectx *models.EnrichedContext) string {
	meetingsJSON, _ := json.MarshalIndent(meetingSummaries(ectx.Meetings), "", "  ")
	turnsJSON, _ := json.MarshalIndent(ectx.Turns, "", "  ")

	stateJSON := "{}"
	if pending := pendingIntentJSON(ectx.State); pending != "" {
		stateJSON = pending
	}

	return fmt.Sprintf(`You are an intelligent scheduling assistant with access to conversation history and meeting patterns.

Current message: "%s"

User's recent meetings:
%s

Recent conversation context:
%s

Current conversation state:
%s

Based on this context, provide a helpful and personalized response. Consider:
- User's meeting patterns and preferences
- Previous conversation context
- Any ongoing scheduling discussions
- Be natural and conversational
- Reference relevant past interactions when helpful`,
		ectx.CurrentMessage, meetingsJSON, turnsJSON, stateJSON)
}

// Help 返回固定的功能说明。
func (c *Composer) Help() string {
	return strings.TrimSpace(`
Hi! I'm your scheduling assistant 🤖

I can help you:
📅 Schedule meetings: "Let's meet Tuesday at 3pm"
❌ Cancel meetings: "Cancel my meeting with John"
🔄 Reschedule meetings: "Move tomorrow's meeting to Friday"
ℹ️ Get meeting info: "What meetings do I have this week?"

Just send me a message in natural language!`)
}

// meetingSummary 是喂给提示词的会议摘要。
type meetingSummary struct {
	Title       string `json:"title"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Location    string `json:"location,omitempty"`
	MeetingType string `json:"meeting_type,omitempty"`
	Status      string `json:"status"`
}

func meetingSummaries(meetings []*models.Meeting) []meetingSummary {
	summaries := make([]meetingSummary, 0, len(meetings))
	for _, m := range meetings {
		summaries = append(summaries, meetingSummary{
			Title:       m.Title,
			StartTime:   m.StartTime.Format(time.RFC3339),
			EndTime:     m.EndTime.Format(time.RFC3339),
			Location:    m.Location,
			MeetingType: string(m.MeetingType),
			Status:      string(m.Status),
		})
	}
	return summaries
}

func pendingIntentJSON(state *models.ConversationState) string {
	if state == nil || len(state.PendingIntent) == 0 {
		return ""
	}
	return string(state.PendingIntent)
}

// bulletList 生成 "• {title} on {date}" 形式的列表。
func bulletList(meetings []*models.Meeting) string {
	var lines []string
	for _, m := range meetings {
		lines = append(lines, fmt.Sprintf("• %s on %s", m.Title, m.StartTime.Format("2006-01-02")))
	}
	return strings.Join(lines, "\n")
}

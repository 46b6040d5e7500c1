package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConversationTurn 是语义记忆中的一条会话轮次记录：
// (用户, 消息原文, 意图快照, 时间戳) 加上一个嵌入向量。
// 追加写入、按用户隔离、从不更新。
type ConversationTurn struct {
	ID          string    `json:"id"`           // Milvus 中的点 ID
	PhoneNumber string    `json:"phone_number"` // 所属用户手机号
	Message     string    `json:"message"`      // 消息原文
	Intent      *Intent   `json:"intent"`       // 本轮抽取出的意图快照
	Timestamp   time.Time `json:"timestamp"`    // 记录时间
	Score       float32   `json:"score"`        // 检索时的相似度得分
}

// ConversationState 持有每个用户最近一次未完成的意图，等待后续消息补全。
// 每个用户至多一条，每轮覆盖写入，意图完整解析后清除。
type ConversationState struct {
	gorm.Model

	UserPhone     string         `gorm:"uniqueIndex;not null;size:32"` // 用户手机号
	PendingIntent datatypes.JSON // 未完成的意图快照 (JSON)
	LastMessage   string         `gorm:"type:text"` // 最近一条消息原文
}

// TableName 自定义表名。
func (ConversationState) TableName() string {
	return "conversation_states"
}

// EnrichedContext 是 ContextAggregator 的输出：当前消息加上三类历史切片。
// 任何一片获取失败都会降级为空切片，而不是让整个聚合失败。
type EnrichedContext struct {
	PhoneNumber    string              `json:"phone_number"`     // 用户手机号
	CurrentMessage string              `json:"current_message"`  // 当前消息原文
	Turns          []*ConversationTurn `json:"turns"`            // 语义相似的历史轮次 (Top-K)
	Meetings       []*Meeting          `json:"meetings"`         // 回溯窗口内的会议记录，按开始时间倒序
	State          *ConversationState  `json:"state,omitempty"`  // 当前会话状态 (可能为 nil)
	Timestamp      time.Time           `json:"timestamp"`        // 聚合时间
}

// UpcomingMeetings 过滤出仍处于已预定状态的会议，最多返回 limit 条。
func (c *EnrichedContext) UpcomingMeetings(limit int) []*Meeting {
	var upcoming []*Meeting
	for _, m := range c.Meetings {
		if m.IsUpcoming() {
			upcoming = append(upcoming, m)
			if len(upcoming) == limit {
				break
			}
		}
	}
	return upcoming
}

package service

import (
	"context"

	"wa_scheduler/internal/models"
)

// 本服务按接口依赖持久层与分类器，由 store.Store 与 llm.IntentClassifier
// 提供生产实现，测试中用内存伪实现替换。

// UserStore 提供用户档案的读写。
type UserStore interface {
	GetOrCreateUserByPhone(phone string) (*models.User, error)
}

// MeetingStore 提供会议记录的读写。
type MeetingStore interface {
	CreateMeeting(meeting *models.Meeting) error
	GetMeetingByID(userID, meetingID uint) (*models.Meeting, error)
	RecentMeetings(userID uint, windowDays, limit int) ([]*models.Meeting, error)
	SetMeetingTaskID(meetingID uint, taskID string) error
	UpdateMeetingStatus(meetingID uint, status models.MeetingStatus) error
}

// StateStore 提供会话状态的读写。
type StateStore interface {
	GetConversationState(phone string) (*models.ConversationState, error)
	SaveConversationState(phone string, pending *models.Intent, lastMessage string) error
	ClearConversationState(phone string) error
}

// Classifier 把一条消息转换为结构化意图，从不失败（失败即降级）。
type Classifier interface {
	Extract(ctx context.Context, message string) *models.Intent
}

package models

import (
	"time"

	"gorm.io/gorm"
)

// MeetingStatus 定义了会议的生命周期状态。
type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "scheduled" // 已预定
	MeetingCancelled MeetingStatus = "cancelled" // 已取消
)

// MeetingKind 定义了会议的形式。
type MeetingKind string

const (
	MeetingVirtual  MeetingKind = "virtual"   // 线上会议
	MeetingInPerson MeetingKind = "in-person" // 线下会议
)

// Meeting 代表一次已预定的会议。
//
// 不变量: status=scheduled 的会议必然持有非空的 GoogleEventID，日历事件
// 创建是整个预定操作的门控步骤。TodoistTaskID 则允许为空：提醒任务的创建
// 是尽力而为的，失败不会回滚会议本身。
// 会议记录不会被物理删除，取消只是状态变更，历史得以保留。
type Meeting struct {
	gorm.Model

	UserID        uint   `gorm:"index;not null"` // 所属用户 ID
	GoogleEventID string `gorm:"size:255"`       // Google Calendar 事件 ID
	TodoistTaskID string `gorm:"size:255"`       // Todoist 任务 ID (可为空)

	Title     string    `gorm:"size:255"` // 会议标题
	StartTime time.Time `gorm:"index"`    // 开始时间
	EndTime   time.Time // 结束时间 (开始时间 + 时长)
	Location  string    `gorm:"size:255"` // 地点 (可为空)

	MeetingType MeetingKind   `gorm:"type:varchar(20)"`                            // virtual / in-person
	Status      MeetingStatus `gorm:"type:varchar(20);default:'scheduled';index"` // scheduled / cancelled
}

// TableName 自定义表名。
func (Meeting) TableName() string {
	return "meetings"
}

// IsUpcoming 报告会议是否仍处于已预定状态。
func (m *Meeting) IsUpcoming() bool {
	return m.Status == MeetingScheduled
}

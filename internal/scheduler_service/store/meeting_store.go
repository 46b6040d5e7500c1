package store

import (
	"errors"
	"time"

	"wa_scheduler/internal/models"

	"gorm.io/gorm"
)

// --- Meeting Management ---

// CreateMeeting 持久化一条会议记录。
// 只有在日历事件创建成功之后才会走到这里，所以 GoogleEventID 必然非空。
func (s *Store) CreateMeeting(meeting *models.Meeting) error {
	return s.DB.Create(meeting).Error
}

// GetMeetingByID 按 ID 查找属于指定用户的会议。
func (s *Store) GetMeetingByID(userID, meetingID uint) (*models.Meeting, error) {
	var meeting models.Meeting
	err := s.DB.Where("id = ? AND user_id = ?", meetingID, userID).First(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// RecentMeetings 返回用户在回溯窗口内创建的会议，按开始时间倒序，至多 limit 条。
func (s *Store) RecentMeetings(userID uint, windowDays, limit int) ([]*models.Meeting, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	var meetings []*models.Meeting
	err := s.DB.
		Where("user_id = ? AND created_at >= ?", userID, cutoff).
		Order("start_time DESC").
		Limit(limit).
		Find(&meetings).Error
	if err != nil {
		return nil, err
	}
	return meetings, nil
}

// SetMeetingTaskID 把 Todoist 任务 ID 回填到会议记录上。
// 任务创建是尽力而为的，回填失败同样只影响提醒，不影响会议本身。
func (s *Store) SetMeetingTaskID(meetingID uint, taskID string) error {
	return s.DB.Model(&models.Meeting{}).Where("id = ?", meetingID).Update("todoist_task_id", taskID).Error
}

// UpdateMeetingStatus 更新会议状态。取消是状态变更而非删除，历史保留。
func (s *Store) UpdateMeetingStatus(meetingID uint, status models.MeetingStatus) error {
	return s.DB.Model(&models.Meeting{}).Where("id = ?", meetingID).Update("status", status).Error
}

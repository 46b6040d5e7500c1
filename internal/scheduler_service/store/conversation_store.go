package store

import (
	"encoding/json"
	"errors"

	"wa_scheduler/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- Conversation State Management ---

// GetConversationState 返回用户当前的会话状态；没有时返回 (nil, nil)。
func (s *Store) GetConversationState(phone string) (*models.ConversationState, error) {
	var state models.ConversationState
	err := s.DB.Where("user_phone = ?", phone).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveConversationState 覆盖写入用户的会话状态（每个用户至多一条）。
func (s *Store) SaveConversationState(phone string, pending *models.Intent, lastMessage string) error {
	intentJSON, err := json.Marshal(pending)
	if err != nil {
		return err
	}

	var state models.ConversationState
	err = s.DB.Where("user_phone = ?", phone).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = models.ConversationState{
			UserPhone:     phone,
			PendingIntent: datatypes.JSON(intentJSON),
			LastMessage:   lastMessage,
		}
		return s.DB.Create(&state).Error
	}
	if err != nil {
		return err
	}

	state.PendingIntent = datatypes.JSON(intentJSON)
	state.LastMessage = lastMessage
	return s.DB.Save(&state).Error
}

// ClearConversationState 在意图完整解析后清除用户的会话状态。
func (s *Store) ClearConversationState(phone string) error {
	return s.DB.Where("user_phone = ?", phone).Delete(&models.ConversationState{}).Error
}

// PendingIntentOf 解析会话状态中携带的未完成意图；无法解析时返回 nil。
func PendingIntentOf(state *models.ConversationState) *models.Intent {
	if state == nil || len(state.PendingIntent) == 0 {
		return nil
	}
	var intent models.Intent
	if err := json.Unmarshal(state.PendingIntent, &intent); err != nil {
		return nil
	}
	return &intent
}

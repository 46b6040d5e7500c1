package store

import (
	"errors"

	"wa_scheduler/internal/models"

	"gorm.io/gorm"
)

// --- User Management ---

// GetOrCreateUserByPhone 通过手机号查找用户，不存在时创建。
// 用户在第一次发消息时即被建档，凭证字段留待授权流程填充。
func (s *Store) GetOrCreateUserByPhone(phone string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("phone_number = ?", phone).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{PhoneNumber: phone}
	if err := s.DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByPhone 通过手机号查找用户。
func (s *Store) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveGoogleToken 记录用户的 Google refresh token。
func (s *Store) SaveGoogleToken(phone, refreshToken string) error {
	user, err := s.GetOrCreateUserByPhone(phone)
	if err != nil {
		return err
	}
	user.GoogleRefreshToken = refreshToken
	return s.DB.Save(user).Error
}

// SaveTodoistToken 记录用户的 Todoist 访问令牌。
func (s *Store) SaveTodoistToken(phone, token string) error {
	user, err := s.GetOrCreateUserByPhone(phone)
	if err != nil {
		return err
	}
	user.TodoistToken = token
	return s.DB.Save(user).Error
}

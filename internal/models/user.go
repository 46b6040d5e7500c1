package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User 代表系统中的一个用户账户，以 WhatsApp 手机号作为稳定的外部标识。
// 用户在第一次发消息时自动创建；凭证字段由（边界外的）OAuth 流程填充；
// 用户记录只会被更新，不会被删除。
type User struct {
	gorm.Model

	PhoneNumber string `gorm:"uniqueIndex;not null;size:32"` // WhatsApp 手机号 (不含 whatsapp: 前缀)

	// 外部系统凭证句柄。本核心只关心其有无，不关心其内容。
	GoogleRefreshToken string `gorm:"type:text" json:"-"` // Google Calendar 的 refresh token
	TodoistToken       string `gorm:"size:255" json:"-"`  // Todoist 的访问令牌

	Timezone    string         `gorm:"size:64;default:'UTC'"` // 用户偏好时区
	Preferences datatypes.JSON // 用户偏好设置
}

// TableName 自定义表名。
func (User) TableName() string {
	return "users"
}

// HasGoogleAuth 报告用户是否已完成 Google Calendar 授权。
func (u *User) HasGoogleAuth() bool {
	return u.GoogleRefreshToken != ""
}

// HasTodoistAuth 报告用户是否已完成 Todoist 授权。
func (u *User) HasTodoistAuth() bool {
	return u.TodoistToken != ""
}

package store

import (
	"errors"

	"gorm.io/gorm"
)

// ErrMeetingNotFound 在按 ID 查找会议无结果时返回。
var ErrMeetingNotFound = errors.New("meeting not found")

// Store 封装了调度服务的所有数据库操作。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

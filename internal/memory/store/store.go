package store

import (
	"context"

	"wa_scheduler/internal/models"
)

// Store defines the interface for storing and retrieving conversation turns.
// Turns are append-only and strictly scoped per user: a search for one phone
// number must never return another user's turns.
type Store interface {
	// AddTurn 把一条会话轮次写入语义记忆。
	AddTurn(ctx context.Context, turn *models.ConversationTurn) error

	// SearchTurns 按语义相似度检索某个用户的历史轮次，至多返回 limit 条。
	SearchTurns(ctx context.Context, phone, query string, limit int) ([]*models.ConversationTurn, error)
}

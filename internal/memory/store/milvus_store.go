package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wa_scheduler/internal/database/milvus"
	"wa_scheduler/internal/embedding"
	"wa_scheduler/internal/models"

	"github.com/google/uuid"
)

// MilvusStore is an implementation of the Store interface that uses Milvus as the backend.
type MilvusStore struct {
	client   *milvus.MilvusClient
	embedder embedding.Embedding
}

// NewMilvusStore creates a new MilvusStore.
func NewMilvusStore(client *milvus.MilvusClient, embedder embedding.Embedding) *MilvusStore {
	return &MilvusStore{
		client:   client,
		embedder: embedder,
	}
}

// AddTurn 把一条会话轮次写入 Milvus。
// 嵌入的是用户、消息与意图快照拼接出的可检索文本。
func (s *MilvusStore) AddTurn(ctx context.Context, turn *models.ConversationTurn) error {
	intentJSON, err := json.Marshal(turn.Intent)
	if err != nil {
		return fmt.Errorf("marshal intent snapshot: %w", err)
	}

	searchable := fmt.Sprintf("User: %s\nMessage: %s\nContext: %s", turn.PhoneNumber, turn.Message, intentJSON)
	vector, err := s.embedder.Embed(ctx, searchable)
	if err != nil {
		return fmt.Errorf("embed turn: %w", err)
	}

	id := turn.ID
	if id == "" {
		id = uuid.New().String()
	}
	ts := turn.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return s.client.Insert(ctx, id, turn.PhoneNumber, turn.Message, string(intentJSON), ts.Unix(), vector)
}

// SearchTurns 按语义相似度检索某个用户的历史轮次。
// 用户过滤在 Milvus 表达式层生效，结果侧再校验一次，杜绝跨用户泄漏。
func (s *MilvusStore) SearchTurns(ctx context.Context, phone, query string, limit int) ([]*models.ConversationTurn, error) {
	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	expr := fmt.Sprintf(`phone == "%s"`, phone)
	searchResult, err := s.client.Search(ctx, limit, queryVector, expr)
	if err != nil {
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var turns []*models.ConversationTurn
	for _, result := range searchResult {
		phoneCol := result.Fields.GetColumn("phone")
		messageCol := result.Fields.GetColumn("message")
		intentCol := result.Fields.GetColumn("intent")
		tsCol := result.Fields.GetColumn("ts")
		if phoneCol == nil || messageCol == nil || intentCol == nil || tsCol == nil {
			continue
		}

		for i := 0; i < result.ResultCount; i++ {
			turnPhone, _ := phoneCol.GetAsString(i)
			if turnPhone != phone {
				// 表达式过滤之外的最后一道防线。
				continue
			}

			id, _ := result.IDs.GetAsString(i)
			message, _ := messageCol.GetAsString(i)
			intentJSON, _ := intentCol.GetAsString(i)
			tsInt, _ := tsCol.GetAsInt64(i)

			var intent models.Intent
			if err := json.Unmarshal([]byte(intentJSON), &intent); err != nil {
				// 旧记录的快照可能损坏，跳过意图但保留消息。
				intent = models.Intent{Kind: models.IntentOther}
			}

			var score float32
			if i < len(result.Scores) {
				score = result.Scores[i]
			}

			turns = append(turns, &models.ConversationTurn{
				ID:          id,
				PhoneNumber: turnPhone,
				Message:     message,
				Intent:      &intent,
				Timestamp:   time.Unix(tsInt, 0),
				Score:       score,
			})
		}
	}

	return turns, nil
}

package service

import (
	"context"
	"time"

	"wa_scheduler/internal/config"
	memstore "wa_scheduler/internal/memory/store"
	"wa_scheduler/internal/models"
	"wa_scheduler/pkg/logger"
)

// Aggregator 把语义记忆、会议历史和会话状态合并为一个富化上下文。
//
// 任何一路子查询失败都只让对应切片降级为空：部分上下文也好过没有回复。
// 语义检索严格限定在当前用户，跨用户泄漏是正确性错误。
type Aggregator struct {
	semantic memstore.Store
	meetings MeetingStore
	states   StateStore
	cfg      *config.SchedulerConfig
	log      *logger.Logger
}

// NewAggregator 创建一个上下文聚合器。
func NewAggregator(semantic memstore.Store, meetings MeetingStore, states StateStore, cfg *config.SchedulerConfig, log *logger.Logger) *Aggregator {
	return &Aggregator{
		semantic: semantic,
		meetings: meetings,
		states:   states,
		cfg:      cfg,
		log:      log,
	}
}

// Aggregate 为一条消息构建富化上下文。永不返回错误。
func (a *Aggregator) Aggregate(ctx context.Context, user *models.User, message string) *models.EnrichedContext {
	ectx := &models.EnrichedContext{
		PhoneNumber:    user.PhoneNumber,
		CurrentMessage: message,
		Timestamp:      time.Now(),
	}

	// (a) 语义相似的历史轮次，Top-K，仅限当前用户。
	searchCtx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.ExternalTimeoutSeconds)*time.Second)
	turns, err := a.semantic.SearchTurns(searchCtx, user.PhoneNumber, message, a.cfg.ContextTopK)
	cancel()
	if err != nil {
		a.log.WithUser(user.PhoneNumber).WithError(err).Warn("语义记忆检索失败，上下文降级为空")
	} else {
		ectx.Turns = turns
	}

	// (b) 回溯窗口内的会议历史，按开始时间倒序。
	meetings, err := a.meetings.RecentMeetings(user.ID, a.cfg.HistoryWindowDays, a.cfg.HistoryLimit)
	if err != nil {
		a.log.WithUser(user.PhoneNumber).WithError(err).Warn("会议历史查询失败，上下文降级为空")
	} else {
		ectx.Meetings = meetings
	}

	// (c) 当前会话状态。
	state, err := a.states.GetConversationState(user.PhoneNumber)
	if err != nil {
		a.log.WithUser(user.PhoneNumber).WithError(err).Warn("会话状态查询失败")
	} else {
		ectx.State = state
	}

	return ectx
}

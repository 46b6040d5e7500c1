package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wa_scheduler/internal/config"
	memstore "wa_scheduler/internal/memory/store"
	"wa_scheduler/internal/models"
	"wa_scheduler/internal/scheduler_service/store"
	"wa_scheduler/pkg/logger"
)

// errorReply 在管道内部出现不可恢复故障时兜底。边界契约要求每条消息
// 都必须得到非空回复。
const errorReply = "Sorry, I encountered an error. Please try again later."

// Service 是会话调度核心的入口，驱动
// 消息 → 意图抽取 → 上下文聚合 → 按意图分发 → 编排 → 语义记忆回写 → 组稿
// 的完整管道。
//
// 同一用户的消息串行处理：意图抽取到持久化之间持有该用户的互斥锁，
// 重试投递的 webhook 不会为同一个请求创建两个会议，也不会乱序覆盖会话
// 状态。锁在组稿之前释放，回复生成不需要串行化。
type Service struct {
	classifier   Classifier
	aggregator   *Aggregator
	orchestrator *Orchestrator
	composer     *Composer
	users        UserStore
	states       StateStore
	semantic     memstore.Store
	cfg          *config.SchedulerConfig
	log          *logger.Logger

	// userLocks 为每个手机号维护一把互斥锁。
	userLocks sync.Map // map[string]*sync.Mutex
}

// NewService 创建调度服务。
func NewService(
	classifier Classifier,
	aggregator *Aggregator,
	orchestrator *Orchestrator,
	composer *Composer,
	users UserStore,
	states StateStore,
	semantic memstore.Store,
	cfg *config.SchedulerConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		classifier:   classifier,
		aggregator:   aggregator,
		orchestrator: orchestrator,
		composer:     composer,
		users:        users,
		states:       states,
		semantic:     semantic,
		cfg:          cfg,
		log:          log,
	}
}

// userLock 返回某个手机号对应的互斥锁。
func (s *Service) userLock(phone string) *sync.Mutex {
	lock, _ := s.userLocks.LoadOrStore(phone, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// outcome 是管道加锁段的产物，组稿阶段据此选择回复路径。
type outcome struct {
	kind    models.IntentKind
	intent  *models.Intent
	ectx    *models.EnrichedContext
	missing []string      // 缺失的必填字段（仅 schedule 且不完整时）
	result  *CreateResult // 编排结果（仅 schedule 且完整时）
	failed  bool          // 管道本身失败，直接回兜底文案
}

// HandleMessage 处理一条入站消息并返回回复文本。
// 永不返回空串，也永不向调用方抛出任何故障。
func (s *Service) HandleMessage(ctx context.Context, phone, message string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithUser(phone).WithPayload(map[string]interface{}{"panic": fmt.Sprint(r)}).Error("消息处理发生 panic")
			reply = errorReply
		}
	}()

	message = strings.TrimSpace(message)
	if message == "" {
		return s.composer.Help()
	}
	if strings.EqualFold(message, "help") {
		return s.composer.Help()
	}

	out := s.process(ctx, phone, message)

	// 锁已释放，以下只读 outcome，不再触碰共享状态。
	if out.failed {
		return errorReply
	}

	switch out.kind {
	case models.IntentSchedule:
		if len(out.missing) > 0 {
			return s.composer.MissingFields(out.missing, len(out.ectx.Meetings) > 0)
		}
		if out.result.Succeeded() {
			return s.composer.ScheduleSuccess(out.intent)
		}
		return s.composer.ScheduleFailure(out.result.FailureReason)
	case models.IntentCancel:
		return s.composer.CancelPrompt(out.ectx)
	case models.IntentReschedule:
		return s.composer.ReschedulePrompt(out.ectx)
	case models.IntentInfo:
		return s.composer.InfoReply(out.ectx)
	default:
		return s.composer.Contextual(ctx, out.ectx)
	}
}

// process 执行管道的加锁段：抽取、聚合、分发、编排、状态与记忆写回。
func (s *Service) process(ctx context.Context, phone, message string) *outcome {
	lock := s.userLock(phone)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.users.GetOrCreateUserByPhone(phone)
	if err != nil {
		s.log.WithUser(phone).WithError(err).Error("用户建档失败")
		return &outcome{failed: true}
	}

	intent := s.classifier.Extract(ctx, message)
	ectx := s.aggregator.Aggregate(ctx, user, message)

	out := &outcome{kind: intent.Kind, intent: intent, ectx: ectx}

	if intent.Kind == models.IntentSchedule {
		// 多轮补全：用上一轮未完成的意图填充本轮缺失的字段。
		intent.MergeFrom(store.PendingIntentOf(ectx.State))

		out.missing = intent.MissingScheduleFields()
		if len(out.missing) > 0 {
			// 等待用户补充，会话状态覆盖写入。
			if err := s.states.SaveConversationState(phone, intent, message); err != nil {
				s.log.WithUser(phone).WithError(err).Warn("会话状态写入失败")
			}
		} else {
			// 意图完整，清除会话状态并执行编排。
			if err := s.states.ClearConversationState(phone); err != nil {
				s.log.WithUser(phone).WithError(err).Warn("会话状态清除失败")
			}
			out.result = s.orchestrator.CreateMeeting(ctx, user, intent)
		}
	}

	// 语义记忆回写是尽力而为的：失败只记日志，绝不影响回复。
	s.storeTurn(ctx, phone, message, intent)

	return out
}

// storeTurn 把本轮对话写入语义记忆。
func (s *Service) storeTurn(ctx context.Context, phone, message string, intent *models.Intent) {
	writeCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ExternalTimeoutSeconds)*time.Second)
	defer cancel()

	err := s.semantic.AddTurn(writeCtx, &models.ConversationTurn{
		PhoneNumber: phone,
		Message:     message,
		Intent:      intent,
		Timestamp:   time.Now(),
	})
	if err != nil {
		s.log.WithUser(phone).WithError(err).Warn("语义记忆写入失败")
	}
}

// CancelMeeting 取消用户的一个会议，由 REST 边界调用。
// 对已取消的会议幂等成功。
func (s *Service) CancelMeeting(ctx context.Context, phone string, meetingID uint) (*models.Meeting, error) {
	lock := s.userLock(phone)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.users.GetOrCreateUserByPhone(phone)
	if err != nil {
		return nil, err
	}

	meeting, err := s.orchestrator.meetings.GetMeetingByID(user.ID, meetingID)
	if err != nil {
		return nil, err
	}

	if err := s.orchestrator.CancelMeeting(ctx, user, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

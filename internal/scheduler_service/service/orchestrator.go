package service

import (
	"context"
	"fmt"
	"time"

	"wa_scheduler/internal/calendar"
	"wa_scheduler/internal/config"
	"wa_scheduler/internal/models"
	"wa_scheduler/internal/todoist"
	"wa_scheduler/pkg/logger"
)

// OperationState 标记一次会议生命周期操作走到了哪一步。
type OperationState string

const (
	StateRequested              OperationState = "requested"                 // 已受理
	StateCalendarCreated        OperationState = "calendar_created"          // 日历事件已创建
	StateComplete               OperationState = "complete"                  // 日历与提醒任务均已创建
	StateCalendarFailed         OperationState = "calendar_failed"           // 日历创建失败，操作终止
	StateTaskFailedButScheduled OperationState = "task_failed_but_scheduled" // 提醒失败但会议已预定
)

// CreateResult 是一次预定操作的结果。
type CreateResult struct {
	State         OperationState  // 操作最终状态
	Meeting       *models.Meeting // 已持久化的会议 (日历创建失败时为 nil)
	FailureReason string          // 失败原因 (仅门控失败时填充)
}

// Succeeded 报告会议本身是否预定成功。提醒任务失败不算预定失败。
func (r *CreateResult) Succeeded() bool {
	return r.State == StateComplete || r.State == StateTaskFailedButScheduled
}

// Orchestrator 驱动会议生命周期：调用日历与任务两个外部系统、持久化
// 会议记录、并在部分失败时执行既定的补偿策略。
//
// 两个外部系统之间没有事务性保证，采用的是非对称补偿：日历事件是
// "会议是否存在"的事实来源，创建失败则整个操作失败、不落库；提醒任务
// 只是便利功能，失败只记日志、不回滚会议。
type Orchestrator struct {
	calendar calendar.Port
	tasks    todoist.Port
	meetings MeetingStore
	cfg      *config.SchedulerConfig
	log      *logger.Logger
}

// NewOrchestrator 创建一个会议编排器。
func NewOrchestrator(cal calendar.Port, tasks todoist.Port, meetings MeetingStore, cfg *config.SchedulerConfig, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		calendar: cal,
		tasks:    tasks,
		meetings: meetings,
		cfg:      cfg,
		log:      log,
	}
}

// externalTimeout 返回单次外部调用的超时上下文。外部调用不在本层重试。
func (o *Orchestrator) externalTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(o.cfg.ExternalTimeoutSeconds)*time.Second)
}

// CreateMeeting 执行预定操作。调用方保证 intent 中 date 与 time 均已给出；
// 无法解析的日期/时间会回退到"明天"与"10:00"，而不是报错。
func (o *Orchestrator) CreateMeeting(ctx context.Context, user *models.User, intent *models.Intent) *CreateResult {
	if !user.HasGoogleAuth() {
		return &CreateResult{
			State:         StateCalendarFailed,
			FailureReason: "your Google Calendar is not connected yet",
		}
	}

	start := o.resolveStartTime(intent.Date, intent.Time, o.timezoneFor(user, intent))
	duration := intent.DurationMinutes
	if duration <= 0 {
		duration = o.cfg.DefaultDurationMinutes
	}
	end := start.Add(time.Duration(duration) * time.Minute)

	title := intent.Title
	if title == "" {
		title = "Meeting"
	}

	// 门控步骤：创建日历事件。失败则整个操作失败，不持久化任何记录。
	callCtx, cancel := o.externalTimeout(ctx)
	ref, err := o.calendar.CreateEvent(callCtx, user.GoogleRefreshToken, &calendar.EventInput{
		Title:     title,
		Start:     start,
		End:       end,
		Timezone:  o.timezoneFor(user, intent),
		Location:  intent.Location,
		Attendees: intent.Participants,
	})
	cancel()
	if err != nil {
		o.log.WithUser(user.PhoneNumber).WithError(err).Error("日历事件创建失败")
		return &CreateResult{
			State:         StateCalendarFailed,
			FailureReason: err.Error(),
		}
	}

	meeting := &models.Meeting{
		UserID:        user.ID,
		GoogleEventID: ref.EventID,
		Title:         title,
		StartTime:     start,
		EndTime:       end,
		Location:      intent.Location,
		MeetingType:   meetingKind(intent.MeetingType),
		Status:        models.MeetingScheduled,
	}
	if err := o.meetings.CreateMeeting(meeting); err != nil {
		// 日历事件已经存在但本地落库失败：尽力删除事件后报告失败，
		// 避免留下一个本地无记录的外部事件。
		o.log.WithUser(user.PhoneNumber).WithError(err).Error("会议记录持久化失败")
		delCtx, delCancel := o.externalTimeout(ctx)
		if delErr := o.calendar.DeleteEvent(delCtx, user.GoogleRefreshToken, ref.EventID); delErr != nil {
			o.log.WithUser(user.PhoneNumber).WithError(delErr).Warn("补偿删除日历事件失败")
		}
		delCancel()
		return &CreateResult{
			State:         StateCalendarFailed,
			FailureReason: "failed to save the meeting record",
		}
	}

	// 尽力而为步骤：创建提醒任务。失败只记日志，会议保持已预定。
	if err := o.createReminderTask(ctx, user, meeting); err != nil {
		o.log.WithUser(user.PhoneNumber).WithError(err).Warn("提醒任务创建失败，会议保持已预定")
		return &CreateResult{State: StateTaskFailedButScheduled, Meeting: meeting}
	}

	return &CreateResult{State: StateComplete, Meeting: meeting}
}

// createReminderTask 为会议创建当天的 Todoist 提醒，并把任务 ID 回填到会议记录。
func (o *Orchestrator) createReminderTask(ctx context.Context, user *models.User, meeting *models.Meeting) error {
	if !user.HasTodoistAuth() {
		return fmt.Errorf("user not authenticated with Todoist")
	}

	content := "📅 Meeting: " + meeting.Title
	if meeting.Location != "" {
		content += " at " + meeting.Location
	}
	description := "Meeting scheduled for " + meeting.StartTime.Format("2006-01-02 15:04")
	if meeting.MeetingType != "" {
		description += "\nType: " + string(meeting.MeetingType)
	}

	callCtx, cancel := o.externalTimeout(ctx)
	defer cancel()
	ref, err := o.tasks.CreateTask(callCtx, user.TodoistToken, &todoist.TaskInput{
		Content:     content,
		Description: description,
		DueDate:     meeting.StartTime.Format("2006-01-02"),
		Priority:    2,
		Labels:      []string{"meeting", "scheduled"},
	})
	if err != nil {
		return err
	}

	meeting.TodoistTaskID = ref.TaskID
	if err := o.meetings.SetMeetingTaskID(meeting.ID, ref.TaskID); err != nil {
		// 任务已创建但回填失败，提醒仍会触达，只记日志。
		o.log.WithUser(user.PhoneNumber).WithError(err).Warn("回填 Todoist 任务 ID 失败")
	}
	return nil
}

// CancelMeeting 取消一个会议。幂等：对已取消的会议再次调用直接成功，
// 不会重复触发外部删除。外部删除失败不阻塞取消，本地记录必须反映
// 用户的取消意愿。
func (o *Orchestrator) CancelMeeting(ctx context.Context, user *models.User, meeting *models.Meeting) error {
	if meeting.Status == models.MeetingCancelled {
		return nil
	}

	if meeting.GoogleEventID != "" {
		callCtx, cancel := o.externalTimeout(ctx)
		if err := o.calendar.DeleteEvent(callCtx, user.GoogleRefreshToken, meeting.GoogleEventID); err != nil {
			o.log.WithUser(user.PhoneNumber).WithError(err).Warn("删除日历事件失败")
		}
		cancel()
	}

	if meeting.TodoistTaskID != "" {
		callCtx, cancel := o.externalTimeout(ctx)
		if err := o.tasks.DeleteTask(callCtx, user.TodoistToken, meeting.TodoistTaskID); err != nil {
			o.log.WithUser(user.PhoneNumber).WithError(err).Warn("删除 Todoist 任务失败")
		}
		cancel()
	}

	if err := o.meetings.UpdateMeetingStatus(meeting.ID, models.MeetingCancelled); err != nil {
		return fmt.Errorf("update meeting status: %w", err)
	}
	meeting.Status = models.MeetingCancelled
	return nil
}

// timezoneFor 确定本次操作使用的时区：意图里的时区优先，其次用户偏好，
// 最后回退到配置的默认值。
func (o *Orchestrator) timezoneFor(user *models.User, intent *models.Intent) string {
	if intent.Timezone != "" {
		return intent.Timezone
	}
	if user.Timezone != "" && user.Timezone != "UTC" {
		return user.Timezone
	}
	return o.cfg.DefaultTimezone
}

// resolveStartTime 把日期和时刻字符串解析为绝对时间。
// 无法解析的日期回退到明天；无法解析的时刻回退到 10:00。
func (o *Orchestrator) resolveStartTime(dateStr, timeStr, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	datePart, dateErr := time.ParseInLocation("2006-01-02", dateStr, loc)
	timePart, timeErr := time.Parse("15:04", timeStr)

	if dateErr == nil && timeErr == nil {
		return time.Date(
			datePart.Year(), datePart.Month(), datePart.Day(),
			timePart.Hour(), timePart.Minute(), 0, 0, loc,
		)
	}

	// 定义好的回退：明天，时刻能解析就用解析结果，否则 10:00。
	o.log.WithPayload(map[string]interface{}{"date": dateStr, "time": timeStr}).Warn("日期时间无法解析，使用回退值")
	hour, minute := 10, 0
	if timeErr == nil {
		hour, minute = timePart.Hour(), timePart.Minute()
	}
	now := time.Now().In(loc)
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, loc)
}

// meetingKind 把意图中的会议形式映射到枚举，未知值按线下处理。
func meetingKind(raw string) models.MeetingKind {
	switch models.MeetingKind(raw) {
	case models.MeetingVirtual:
		return models.MeetingVirtual
	case models.MeetingInPerson:
		return models.MeetingInPerson
	default:
		return models.MeetingInPerson
	}
}

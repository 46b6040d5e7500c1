package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"wa_scheduler/internal/calendar"
	"wa_scheduler/internal/config"
	"wa_scheduler/internal/models"
	"wa_scheduler/internal/scheduler_service/store"
	"wa_scheduler/internal/todoist"
	"wa_scheduler/pkg/logger"
)

// --- fakes shared by the service package tests ---

type fakeCalendar struct {
	createErr   error
	deleteErr   error
	createCalls int
	deleteCalls int
	lastInput   *calendar.EventInput
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, credential string, in *calendar.EventInput) (*calendar.EventRef, error) {
	f.createCalls++
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &calendar.EventRef{EventID: "evt-1", HTMLLink: "https://calendar.example/evt-1"}, nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, credential string, eventID string) error {
	f.deleteCalls++
	return f.deleteErr
}

type fakeTasks struct {
	createErr   error
	deleteErr   error
	createCalls int
	deleteCalls int
	lastInput   *todoist.TaskInput
}

func (f *fakeTasks) CreateTask(ctx context.Context, credential string, in *todoist.TaskInput) (*todoist.TaskRef, error) {
	f.createCalls++
	f.lastInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &todoist.TaskRef{TaskID: "task-1"}, nil
}

func (f *fakeTasks) DeleteTask(ctx context.Context, credential string, taskID string) error {
	f.deleteCalls++
	return f.deleteErr
}

type fakeMeetingStore struct {
	mu        sync.Mutex
	createErr error
	nextID    uint
	meetings  map[uint]*models.Meeting
}

func newFakeMeetingStore() *fakeMeetingStore {
	return &fakeMeetingStore{meetings: make(map[uint]*models.Meeting)}
}

func (f *fakeMeetingStore) CreateMeeting(meeting *models.Meeting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	meeting.ID = f.nextID
	f.meetings[meeting.ID] = meeting
	return nil
}

func (f *fakeMeetingStore) GetMeetingByID(userID, meetingID uint) (*models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.meetings[meetingID]
	if !ok || m.UserID != userID {
		return nil, store.ErrMeetingNotFound
	}
	return m, nil
}

func (f *fakeMeetingStore) RecentMeetings(userID uint, windowDays, limit int) ([]*models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Meeting
	for _, m := range f.meetings {
		if m.UserID == userID {
			out = append(out, m)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMeetingStore) SetMeetingTaskID(meetingID uint, taskID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meetings[meetingID]; ok {
		m.TodoistTaskID = taskID
	}
	return nil
}

func (f *fakeMeetingStore) UpdateMeetingStatus(meetingID uint, status models.MeetingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.meetings[meetingID]; ok {
		m.Status = status
	}
	return nil
}

func (f *fakeMeetingStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.meetings)
}

// --- helpers ---

func testSchedulerConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		DefaultTimezone:        "UTC",
		DefaultDurationMinutes: 30,
		ContextTopK:            5,
		HistoryWindowDays:      30,
		HistoryLimit:           10,
		ExternalTimeoutSeconds: 5,
	}
}

func testUser() *models.User {
	u := &models.User{
		PhoneNumber:        "+212612345678",
		GoogleRefreshToken: "google-refresh",
		TodoistToken:       "todoist-token",
		Timezone:           "UTC",
	}
	u.ID = 1
	return u
}

func scheduleIntent() *models.Intent {
	return &models.Intent{
		Kind:            models.IntentSchedule,
		Date:            "2026-09-01",
		Time:            "15:00",
		Timezone:        "UTC",
		DurationMinutes: 45,
		MeetingType:     "virtual",
		Location:        "Zoom",
		Title:           "Design review",
		Confidence:      0.9,
	}
}

func newTestOrchestrator(cal *fakeCalendar, tasks *fakeTasks, meetings *fakeMeetingStore) *Orchestrator {
	return NewOrchestrator(cal, tasks, meetings, testSchedulerConfig(), logger.New("test", "", ""))
}

// --- CreateMeeting ---

func TestCreateMeeting_Complete(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())

	if result.State != StateComplete {
		t.Fatalf("expected state complete, got %s", result.State)
	}
	if !result.Succeeded() {
		t.Error("expected Succeeded() to be true")
	}
	if result.Meeting.GoogleEventID != "evt-1" {
		t.Errorf("expected calendar ref on meeting, got %q", result.Meeting.GoogleEventID)
	}
	if result.Meeting.TodoistTaskID != "task-1" {
		t.Errorf("expected task ref backfilled, got %q", result.Meeting.TodoistTaskID)
	}
	wantStart := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	if !result.Meeting.StartTime.Equal(wantStart) {
		t.Errorf("expected start %v, got %v", wantStart, result.Meeting.StartTime)
	}
	if !result.Meeting.EndTime.Equal(wantStart.Add(45 * time.Minute)) {
		t.Errorf("expected end to be start + duration, got %v", result.Meeting.EndTime)
	}
}

func TestCreateMeeting_ReminderTaskPayload(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	o.CreateMeeting(context.Background(), testUser(), scheduleIntent())

	in := tasks.lastInput
	if in == nil {
		t.Fatal("expected a reminder task to be created")
	}
	if in.Content != "📅 Meeting: Design review at Zoom" {
		t.Errorf("unexpected task content: %q", in.Content)
	}
	if in.Priority != 2 {
		t.Errorf("expected priority 2, got %d", in.Priority)
	}
	if len(in.Labels) != 2 || in.Labels[0] != "meeting" || in.Labels[1] != "scheduled" {
		t.Errorf("unexpected labels: %v", in.Labels)
	}
	if in.DueDate != "2026-09-01" {
		t.Errorf("expected due date on meeting day, got %q", in.DueDate)
	}
}

func TestCreateMeeting_NoGoogleAuthFailsWithoutSideEffects(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	user := testUser()
	user.GoogleRefreshToken = ""

	result := o.CreateMeeting(context.Background(), user, scheduleIntent())

	if result.State != StateCalendarFailed {
		t.Fatalf("expected calendar_failed, got %s", result.State)
	}
	if !strings.Contains(result.FailureReason, "not connected") {
		t.Errorf("expected reason to mention missing connection, got %q", result.FailureReason)
	}
	if cal.createCalls != 0 || tasks.createCalls != 0 || meetings.count() != 0 {
		t.Error("expected no external calls and no persisted meeting")
	}
}

func TestCreateMeeting_CalendarFailureDoesNotPersist(t *testing.T) {
	cal := &fakeCalendar{createErr: errors.New("calendar API unavailable")}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())

	if result.State != StateCalendarFailed {
		t.Fatalf("expected calendar_failed, got %s", result.State)
	}
	if result.Succeeded() {
		t.Error("expected Succeeded() to be false")
	}
	if result.FailureReason == "" {
		t.Error("expected a failure reason for the reply")
	}
	if meetings.count() != 0 {
		t.Error("expected no meeting persisted after calendar failure")
	}
	if tasks.createCalls != 0 {
		t.Error("expected no task creation after calendar failure")
	}
}

func TestCreateMeeting_TaskFailureStillScheduled(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{createErr: errors.New("todoist down")}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())

	if result.State != StateTaskFailedButScheduled {
		t.Fatalf("expected task_failed_but_scheduled, got %s", result.State)
	}
	if !result.Succeeded() {
		t.Error("expected the meeting itself to count as scheduled")
	}
	if meetings.count() != 1 {
		t.Error("expected the meeting to be persisted")
	}
	if result.Meeting.TodoistTaskID != "" {
		t.Errorf("expected empty task ref, got %q", result.Meeting.TodoistTaskID)
	}
}

func TestCreateMeeting_NoTodoistAuthStillScheduled(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	user := testUser()
	user.TodoistToken = ""

	result := o.CreateMeeting(context.Background(), user, scheduleIntent())

	if result.State != StateTaskFailedButScheduled {
		t.Fatalf("expected task_failed_but_scheduled, got %s", result.State)
	}
	if tasks.createCalls != 0 {
		t.Error("expected no task API call without credentials")
	}
}

func TestCreateMeeting_PersistFailureCompensatesCalendar(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	meetings.createErr = errors.New("mysql down")
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())

	if result.State != StateCalendarFailed {
		t.Fatalf("expected calendar_failed, got %s", result.State)
	}
	if cal.deleteCalls != 1 {
		t.Errorf("expected the orphaned calendar event to be deleted, got %d delete calls", cal.deleteCalls)
	}
	if tasks.createCalls != 0 {
		t.Error("expected no task creation after persist failure")
	}
}

func TestCreateMeeting_UnparseableDatetimeFallsBack(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	intent := scheduleIntent()
	intent.Date = "next Tuesday" // classifier normally resolves this, guard the fallback anyway
	intent.Time = "15:00"

	result := o.CreateMeeting(context.Background(), testUser(), intent)

	if result.State != StateComplete {
		t.Fatalf("expected the fallback to still schedule, got %s", result.State)
	}
	now := time.Now().UTC()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	want := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 15, 0, 0, 0, time.UTC)
	if !result.Meeting.StartTime.Equal(want) {
		t.Errorf("expected fallback start %v, got %v", want, result.Meeting.StartTime)
	}
}

func TestCreateMeeting_UnparseableTimeFallsBackToTen(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	intent := scheduleIntent()
	intent.Date = "garbage"
	intent.Time = "garbage"

	result := o.CreateMeeting(context.Background(), testUser(), intent)

	if result.Meeting.StartTime.Hour() != 10 || result.Meeting.StartTime.Minute() != 0 {
		t.Errorf("expected 10:00 fallback, got %v", result.Meeting.StartTime)
	}
}

// --- CancelMeeting ---

func TestCancelMeeting_DeletesExternalAndMarksCancelled(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())
	meeting := result.Meeting

	if err := o.CancelMeeting(context.Background(), testUser(), meeting); err != nil {
		t.Fatalf("CancelMeeting() error = %v", err)
	}
	if meeting.Status != models.MeetingCancelled {
		t.Errorf("expected status cancelled, got %s", meeting.Status)
	}
	if cal.deleteCalls != 1 || tasks.deleteCalls != 1 {
		t.Errorf("expected one delete per external system, got calendar=%d tasks=%d", cal.deleteCalls, tasks.deleteCalls)
	}
}

func TestCancelMeeting_Idempotent(t *testing.T) {
	cal := &fakeCalendar{}
	tasks := &fakeTasks{}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())
	meeting := result.Meeting

	if err := o.CancelMeeting(context.Background(), testUser(), meeting); err != nil {
		t.Fatalf("first cancel error = %v", err)
	}
	if err := o.CancelMeeting(context.Background(), testUser(), meeting); err != nil {
		t.Fatalf("second cancel error = %v", err)
	}

	if cal.deleteCalls != 1 || tasks.deleteCalls != 1 {
		t.Errorf("expected external deletes to run once, got calendar=%d tasks=%d", cal.deleteCalls, tasks.deleteCalls)
	}
}

func TestCancelMeeting_ExternalFailureStillCancels(t *testing.T) {
	cal := &fakeCalendar{deleteErr: errors.New("event gone")}
	tasks := &fakeTasks{deleteErr: errors.New("task gone")}
	meetings := newFakeMeetingStore()
	o := newTestOrchestrator(cal, tasks, meetings)

	result := o.CreateMeeting(context.Background(), testUser(), scheduleIntent())
	meeting := result.Meeting

	if err := o.CancelMeeting(context.Background(), testUser(), meeting); err != nil {
		t.Fatalf("CancelMeeting() error = %v", err)
	}
	if meeting.Status != models.MeetingCancelled {
		t.Errorf("expected local record to reflect cancellation, got %s", meeting.Status)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"wa_scheduler/internal/models"
	"wa_scheduler/pkg/logger"
)

// fakeGenerator is a canned llm.LLM for composer tests.
type fakeGenerator struct {
	resp string
	err  error
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerateContentResponse{Text: f.resp}, nil
}

func newTestComposer(gen *fakeGenerator) *Composer {
	return NewComposer(gen, logger.New("test", "", ""))
}

func contextWithMeetings(n int) *models.EnrichedContext {
	ectx := &models.EnrichedContext{PhoneNumber: "+212612345678", CurrentMessage: "hi"}
	for i := 0; i < n; i++ {
		m := &models.Meeting{
			Title:     fmt.Sprintf("Meeting %d", i+1),
			StartTime: time.Date(2026, 9, 1+i, 10, 0, 0, 0, time.UTC),
			Status:    models.MeetingScheduled,
		}
		ectx.Meetings = append(ectx.Meetings, m)
	}
	return ectx
}

func TestMissingFields_ListsFieldsInOrder(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.MissingFields([]string{"date", "time"}, false)

	if !strings.Contains(reply, "date, time") {
		t.Errorf("expected reply to list missing fields in order, got %q", reply)
	}
	if strings.Contains(reply, "usual preferences") {
		t.Error("expected no personalization without history")
	}
}

func TestMissingFields_PersonalizedWithHistory(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.MissingFields([]string{"time"}, true)

	if !strings.Contains(reply, "usual preferences") {
		t.Errorf("expected personalized phrasing with history, got %q", reply)
	}
	if !strings.Contains(reply, "time") || strings.Contains(reply, "date,") {
		t.Errorf("expected only the missing field to be listed, got %q", reply)
	}
}

func TestScheduleSuccess_EchoesParsedFields(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.ScheduleSuccess(&models.Intent{
		Kind:        models.IntentSchedule,
		Date:        "2026-09-01",
		Time:        "15:00",
		MeetingType: "virtual",
		Location:    "Zoom",
	})

	for _, want := range []string{"✅", "virtual", "2026-09-01", "15:00", "Zoom"} {
		if !strings.Contains(reply, want) {
			t.Errorf("expected reply to contain %q, got %q", want, reply)
		}
	}
}

func TestScheduleFailure_EchoesReason(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.ScheduleFailure("your Google Calendar is not connected yet")

	if !strings.Contains(reply, "❌") || !strings.Contains(reply, "not connected") {
		t.Errorf("unexpected failure reply: %q", reply)
	}
}

func TestCancelPrompt_CapsAtThree(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.CancelPrompt(contextWithMeetings(5))

	if got := strings.Count(reply, "•"); got != 3 {
		t.Errorf("expected 3 bullets, got %d in %q", got, reply)
	}
}

func TestCancelPrompt_NoUpcomingAsksDirectly(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.CancelPrompt(contextWithMeetings(0))

	if reply == "" || strings.Contains(reply, "•") {
		t.Errorf("expected a plain question without bullets, got %q", reply)
	}
}

func TestInfoReply_CapsAtFive(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.InfoReply(contextWithMeetings(8))

	if got := strings.Count(reply, "📅"); got != 5 {
		t.Errorf("expected 5 meeting lines, got %d in %q", got, reply)
	}
}

func TestInfoReply_NoHistory(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	reply := c.InfoReply(contextWithMeetings(0))

	if !strings.Contains(reply, "first meeting") {
		t.Errorf("expected the no-history variant, got %q", reply)
	}
}

func TestInfoReply_HistoryButNoUpcoming(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	ectx := contextWithMeetings(2)
	for _, m := range ectx.Meetings {
		m.Status = models.MeetingCancelled
	}

	reply := c.InfoReply(ectx)

	if !strings.Contains(reply, "don't have any upcoming meetings") {
		t.Errorf("expected the no-upcoming variant, got %q", reply)
	}
}

func TestContextual_UsesGeneratedText(t *testing.T) {
	c := newTestComposer(&fakeGenerator{resp: "Sure, happy to help with that!"})

	reply := c.Contextual(context.Background(), contextWithMeetings(1))

	if reply != "Sure, happy to help with that!" {
		t.Errorf("expected generated text, got %q", reply)
	}
}

func TestContextual_FallsBackOnError(t *testing.T) {
	c := newTestComposer(&fakeGenerator{err: errors.New("model unavailable")})

	reply := c.Contextual(context.Background(), contextWithMeetings(1))

	if reply != contextualFallback {
		t.Errorf("expected fixed fallback, got %q", reply)
	}
}

func TestContextual_FallsBackOnEmptyText(t *testing.T) {
	c := newTestComposer(&fakeGenerator{resp: "   "})

	reply := c.Contextual(context.Background(), contextWithMeetings(1))

	if reply != contextualFallback {
		t.Errorf("expected fixed fallback, got %q", reply)
	}
}

func TestHelp_MentionsAllCapabilities(t *testing.T) {
	c := newTestComposer(&fakeGenerator{})

	help := c.Help()

	for _, want := range []string{"Schedule", "Cancel", "Reschedule", "meeting info"} {
		if !strings.Contains(help, want) {
			t.Errorf("expected help text to mention %q", want)
		}
	}
}

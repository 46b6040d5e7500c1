package llm

import (
	"context"
	"errors"
	"testing"

	"wa_scheduler/internal/models"
	"wa_scheduler/pkg/logger"
)

// fakeLLM returns a canned response or error, and counts calls.
type fakeLLM struct {
	resp  string
	err   error
	calls int
}

func (f *fakeLLM) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.GenerateContentResponse{Text: f.resp}, nil
}

func newTestClassifier(l LLM) *IntentClassifier {
	return NewIntentClassifier(l, "Africa/Casablanca", 30, logger.New("test", "", ""))
}

func TestExtract_ParsesScheduleIntent(t *testing.T) {
	fake := &fakeLLM{resp: `{
		"intent": "schedule",
		"date": "2026-09-01",
		"time": "15:00",
		"timezone": "Europe/Paris",
		"duration_minutes": 45,
		"meeting_type": "virtual",
		"location": "Zoom",
		"participants": ["a@example.com"],
		"title": "Design review",
		"confidence": 0.92
	}`}
	c := newTestClassifier(fake)

	intent := c.Extract(context.Background(), "Let's meet Tuesday at 3pm")

	if intent.Kind != models.IntentSchedule {
		t.Fatalf("expected intent schedule, got %s", intent.Kind)
	}
	if intent.Date != "2026-09-01" || intent.Time != "15:00" {
		t.Errorf("unexpected date/time: %s %s", intent.Date, intent.Time)
	}
	if intent.Timezone != "Europe/Paris" {
		t.Errorf("expected explicit timezone to be kept, got %s", intent.Timezone)
	}
	if intent.DurationMinutes != 45 {
		t.Errorf("expected duration 45, got %d", intent.DurationMinutes)
	}
	if intent.Confidence != 0.92 {
		t.Errorf("expected confidence 0.92, got %f", intent.Confidence)
	}
}

func TestExtract_StripsMarkdownFences(t *testing.T) {
	fake := &fakeLLM{resp: "```json\n{\"intent\": \"cancel\", \"confidence\": 0.8}\n```"}
	c := newTestClassifier(fake)

	intent := c.Extract(context.Background(), "cancel my meeting")

	if intent.Kind != models.IntentCancel {
		t.Fatalf("expected intent cancel, got %s", intent.Kind)
	}
}

func TestExtract_AppliesDefaults(t *testing.T) {
	fake := &fakeLLM{resp: `{"intent": "schedule", "date": "2026-09-01", "time": "10:00", "confidence": 0.9}`}
	c := newTestClassifier(fake)

	intent := c.Extract(context.Background(), "meet tomorrow at 10")

	if intent.Timezone != "Africa/Casablanca" {
		t.Errorf("expected default timezone, got %s", intent.Timezone)
	}
	if intent.DurationMinutes != 30 {
		t.Errorf("expected default duration 30, got %d", intent.DurationMinutes)
	}
}

func TestExtract_LLMErrorDegrades(t *testing.T) {
	fake := &fakeLLM{err: errors.New("rate limited")}
	c := newTestClassifier(fake)

	intent := c.Extract(context.Background(), "hello")

	if intent.Kind != models.IntentOther {
		t.Fatalf("expected degraded intent other, got %s", intent.Kind)
	}
	if intent.Confidence != 0.0 {
		t.Errorf("expected confidence 0, got %f", intent.Confidence)
	}
}

func TestExtract_MalformedJSONDegrades(t *testing.T) {
	fake := &fakeLLM{resp: "I think you want to schedule a meeting!"}
	c := newTestClassifier(fake)

	intent := c.Extract(context.Background(), "hello")

	if intent.Kind != models.IntentOther {
		t.Fatalf("expected degraded intent other, got %s", intent.Kind)
	}
	if intent.Confidence != 0.0 {
		t.Errorf("expected confidence 0, got %f", intent.Confidence)
	}
}

func TestExtract_UnknownIntentKindBecomesOther(t *testing.T) {
	fake := &fakeLLM{resp: `{"intent": "greet", "confidence": 0.7}`}
	c := newTestClassifier(fake)

	intent := c.Extract(context.Background(), "hi there")

	if intent.Kind != models.IntentOther {
		t.Fatalf("expected unknown kind to map to other, got %s", intent.Kind)
	}
}

func TestExtract_CachesRepeatedMessage(t *testing.T) {
	fake := &fakeLLM{resp: `{"intent": "info", "confidence": 0.9}`}
	c := newTestClassifier(fake)

	first := c.Extract(context.Background(), "what meetings do I have?")
	second := c.Extract(context.Background(), "what meetings do I have?")

	if fake.calls != 1 {
		t.Fatalf("expected a single LLM call for a repeated message, got %d", fake.calls)
	}
	if first.Kind != second.Kind {
		t.Errorf("cached intent differs: %s vs %s", first.Kind, second.Kind)
	}
}

func TestExtract_FailuresAreNotCached(t *testing.T) {
	fake := &fakeLLM{err: errors.New("timeout")}
	c := newTestClassifier(fake)

	c.Extract(context.Background(), "hello")
	fake.err = nil
	fake.resp = `{"intent": "info", "confidence": 0.9}`
	intent := c.Extract(context.Background(), "hello")

	if intent.Kind != models.IntentInfo {
		t.Fatalf("expected a retry after failure to reach the LLM, got %s", intent.Kind)
	}
}

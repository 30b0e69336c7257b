package nlq

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type scriptedModel struct {
	reply      string
	err        error
	lastStage  string
	lastPrompt string
	calls      int
}

func (m *scriptedModel) Run(_ context.Context, stage, prompt string) (string, error) {
	m.calls++
	m.lastStage = stage
	m.lastPrompt = prompt
	return m.reply, m.err
}

func newTestTranslator(t *testing.T, model ModelRunner) *Translator {
	t.Helper()
	translator, err := NewTranslator(model, "iot_data", "parking_events")
	if err != nil {
		t.Fatalf("NewTranslator() error = %v", err)
	}
	return translator
}

func TestTranslateStripsCodeFences(t *testing.T) {
	model := &scriptedModel{reply: "```sql\nSELECT sensor_id FROM iot_data.parking_events\n```"}
	translator := newTestTranslator(t, model)

	got, err := translator.Translate(context.Background(), "which spots are free?")
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if got.OffTopic {
		t.Fatal("unexpected off-topic verdict")
	}
	if got.SQL != "SELECT sensor_id FROM iot_data.parking_events" {
		t.Fatalf("SQL = %q", got.SQL)
	}
}

func TestTranslatePromptMentionsTableAndQuestion(t *testing.T) {
	model := &scriptedModel{reply: "SELECT 1"}
	translator := newTestTranslator(t, model)

	if _, err := translator.Translate(context.Background(), "where can I park?"); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	for _, want := range []string{
		"iot_data.parking_events",
		`"where can I park?"`,
		"NEVER use SUM/COUNT",
		"row_number",
		OffTopicSentinel,
	} {
		if !strings.Contains(model.lastPrompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if model.lastStage != "translate" {
		t.Fatalf("stage = %q", model.lastStage)
	}
}

func TestTranslateDetectsOffTopicSentinel(t *testing.T) {
	for _, reply := range []string{
		"NOT_PARKING_RELATED",
		"not_parking_related",
		"```\nNOT_PARKING_RELATED\n```",
		"Sorry. NOT_PARKING_RELATED",
	} {
		model := &scriptedModel{reply: reply}
		translator := newTestTranslator(t, model)

		got, err := translator.Translate(context.Background(), "what's the weather?")
		if err != nil {
			t.Fatalf("Translate(%q) error = %v", reply, err)
		}
		if !got.OffTopic {
			t.Fatalf("Translate(%q) should be off-topic", reply)
		}
		if got.SQL != "" {
			t.Fatalf("off-topic translation must carry no SQL, got %q", got.SQL)
		}
	}
}

func TestTranslateRejectsNonSelectOutput(t *testing.T) {
	model := &scriptedModel{reply: "I cannot answer that."}
	translator := newTestTranslator(t, model)

	_, err := translator.Translate(context.Background(), "which spots are free?")
	var translationErr *TranslationError
	if !errors.As(err, &translationErr) {
		t.Fatalf("Translate() error = %v, want TranslationError", err)
	}
	if translationErr.RawOutput != "I cannot answer that." {
		t.Fatalf("RawOutput = %q", translationErr.RawOutput)
	}
}

func TestTranslateWrapsModelFailure(t *testing.T) {
	model := &scriptedModel{err: errors.New("gateway unreachable")}
	translator := newTestTranslator(t, model)

	_, err := translator.Translate(context.Background(), "which spots are free?")
	if err == nil || !strings.Contains(err.Error(), "translate question") {
		t.Fatalf("Translate() error = %v", err)
	}
}

func TestTranslateCallsModelOnce(t *testing.T) {
	model := &scriptedModel{reply: "SELECT 1"}
	translator := newTestTranslator(t, model)
	if _, err := translator.Translate(context.Background(), "q"); err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("model calls = %d, want 1", model.calls)
	}
}

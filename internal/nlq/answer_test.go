package nlq

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lotquery/lotquery/internal/execution"
)

func strPtr(s string) *string { return &s }

func TestAnswerEmbedsRowsAndQuestion(t *testing.T) {
	model := &scriptedModel{reply: "Spots spot-01 and spot-03 are free."}
	generator, err := NewAnswerGenerator(model)
	if err != nil {
		t.Fatalf("NewAnswerGenerator() error = %v", err)
	}

	table := execution.Table{
		Columns: []string{"sensor_id", "status"},
		Rows: []map[string]*string{
			{"sensor_id": strPtr("spot-01"), "status": strPtr("FREE")},
			{"sensor_id": strPtr("spot-03"), "status": nil},
		},
	}
	answer, err := generator.Answer(context.Background(), "where can I park?", table)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if answer != "Spots spot-01 and spot-03 are free." {
		t.Fatalf("Answer() = %q", answer)
	}
	for _, want := range []string{
		`"where can I park?"`,
		`"spot-01"`,
		`"status":null`,
		"NEVER invent, fabricate",
		"SAME LANGUAGE",
	} {
		if !strings.Contains(model.lastPrompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if model.lastStage != "answer" {
		t.Fatalf("stage = %q", model.lastStage)
	}
}

func TestAnswerHandlesEmptyTable(t *testing.T) {
	model := &scriptedModel{reply: "Could you rephrase your question?"}
	generator, err := NewAnswerGenerator(model)
	if err != nil {
		t.Fatalf("NewAnswerGenerator() error = %v", err)
	}

	if _, err := generator.Answer(context.Background(), "q", execution.Table{}); err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !strings.Contains(model.lastPrompt, "\n[]\n") {
		t.Fatalf("empty rows should serialize as []:\n%s", model.lastPrompt)
	}
}

func TestAnswerWrapsModelFailure(t *testing.T) {
	model := &scriptedModel{err: errors.New("gateway down")}
	generator, err := NewAnswerGenerator(model)
	if err != nil {
		t.Fatalf("NewAnswerGenerator() error = %v", err)
	}
	_, err = generator.Answer(context.Background(), "q", execution.Table{})
	if err == nil || !strings.Contains(err.Error(), "generate answer") {
		t.Fatalf("Answer() error = %v", err)
	}
}

// Package nlq turns free-text questions about the parking system into SQL
// and turns retrieved rows back into prose. Both directions are single model
// calls against fixed prompts; this package never executes SQL itself.
package nlq

import (
	"context"
	"fmt"
	"strings"

	"github.com/lotquery/lotquery/internal/observability"
)

// OffTopicSentinel is the literal the model is instructed to return when a
// question has nothing to do with the parking system.
const OffTopicSentinel = "NOT_PARKING_RELATED"

// ModelRunner is the single-shot model gateway call the pipeline depends on.
type ModelRunner interface {
	Run(ctx context.Context, stage, prompt string) (string, error)
}

// Translation is the typed outcome of the first pipeline stage: either a
// candidate statement or an explicit off-topic verdict, never both.
type Translation struct {
	SQL      string
	OffTopic bool
}

// TranslationError reports a model reply that contained neither the
// off-topic sentinel nor a SELECT statement. RawOutput is kept for diagnosis.
type TranslationError struct {
	RawOutput string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("model produced no usable SQL: %q", e.RawOutput)
}

type Translator struct {
	model    ModelRunner
	tableRef string
}

// NewTranslator builds a translator bound to one qualified table, e.g.
// "iot_data.parking_events".
func NewTranslator(model ModelRunner, database, table string) (*Translator, error) {
	if model == nil {
		return nil, fmt.Errorf("model runner is required")
	}
	if database == "" || table == "" {
		return nil, fmt.Errorf("database and table are required")
	}
	return &Translator{model: model, tableRef: database + "." + table}, nil
}

// Translate asks the model for a statement answering the question. Code
// fences are stripped from the reply; the off-topic sentinel short-circuits
// to an OffTopic translation without error.
func (t *Translator) Translate(ctx context.Context, question string) (Translation, error) {
	reply, err := t.model.Run(ctx, "translate", translationPrompt(t.tableRef, question))
	if err != nil {
		return Translation{}, fmt.Errorf("translate question: %w", err)
	}

	sql := stripCodeFences(reply)
	if strings.Contains(strings.ToUpper(sql), OffTopicSentinel) {
		observability.IncrementTranslationOffTopic()
		return Translation{OffTopic: true}, nil
	}
	if !strings.Contains(strings.ToUpper(sql), "SELECT") {
		return Translation{}, &TranslationError{RawOutput: sql}
	}
	return Translation{SQL: sql}, nil
}

func stripCodeFences(value string) string {
	cleaned := strings.ReplaceAll(value, "```sql", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

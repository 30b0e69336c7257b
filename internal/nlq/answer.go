package nlq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lotquery/lotquery/internal/execution"
)

// AnswerGenerator produces the final prose reply from retrieved rows. The
// grounding contract (answer only from the supplied rows, never fabricate)
// lives entirely in the prompt; nothing here verifies the model honored it.
type AnswerGenerator struct {
	model ModelRunner
}

func NewAnswerGenerator(model ModelRunner) (*AnswerGenerator, error) {
	if model == nil {
		return nil, fmt.Errorf("model runner is required")
	}
	return &AnswerGenerator{model: model}, nil
}

// Answer serializes the table rows as JSON, embeds them with the question in
// the grounding prompt, and returns the model's reply verbatim.
func (g *AnswerGenerator) Answer(ctx context.Context, question string, table execution.Table) (string, error) {
	rows := table.Rows
	if rows == nil {
		rows = []map[string]*string{}
	}
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("serialize result rows: %w", err)
	}

	answer, err := g.model.Run(ctx, "answer", answerPrompt(question, string(rowsJSON)))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	return answer, nil
}

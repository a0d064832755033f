package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

// explanationSampleRows caps how many result rows are shown to the model.
const explanationSampleRows = 5

const explainerSystemPrompt = `You are an expert data analyst who explains SQL queries and results in simple, plain language.
Focus on clarity and insight - describe what the query does and what the results mean.`

// explainStage asks the text-generation service for a plain-language
// description of the query and a sample of its results. A failed service
// call is recorded as an inline error string; the run still finishes.
func (e *Engine) explainStage(ctx context.Context, s *session.State) (*session.State, error) {
	sqlQuery := effectiveSQL(s)
	if strings.TrimSpace(sqlQuery) == "" {
		return nil, &PreconditionError{Stage: "explanation", Missing: "validated_sql or generated_sql"}
	}
	if s.ExecutionResult == nil {
		return nil, &PreconditionError{Stage: "explanation", Missing: "execution_result"}
	}

	sampleRows := s.ExecutionResult.Rows
	if len(sampleRows) > explanationSampleRows {
		sampleRows = sampleRows[:explanationSampleRows]
	}
	sampleJSON, err := json.MarshalIndent(sampleRows, "", "  ")
	if err != nil {
		sampleJSON = []byte("[]")
	}

	userPrompt := fmt.Sprintf(
		"SQL Query:\n%s\n\nSample of Query Results (first %d rows):\n%s\n\n"+
			"Explain in natural language:\n"+
			"1. What does this SQL query do?\n"+
			"2. What are the main insights or patterns visible in the results?",
		sqlQuery, explanationSampleRows, sampleJSON,
	)

	explanation, err := e.provider.Complete(ctx, explainerSystemPrompt, userPrompt)
	if err != nil {
		L_error("explain: service call failed", "error", err)
		explanation = "Error generating explanation: " + err.Error()
	}
	explanation = strings.TrimSpace(explanation)

	out := s.Clone()
	out.NaturalLanguageExplanation = explanation
	out.ExplanationHistory = append(out.ExplanationHistory, session.ExplanationRecord{
		Time:        e.timestamp(),
		SQL:         sqlQuery,
		Explanation: explanation,
		RowsUsed:    len(sampleRows),
	})
	out.Status = session.StatusExplained
	out.AppendLog("explain: " + truncate(explanation, 80))

	L_info("explain: explanation generated", "rowsUsed", len(sampleRows))
	return out, nil
}

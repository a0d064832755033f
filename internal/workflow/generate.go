package workflow

import (
	"context"
	"fmt"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
	"github.com/sqlclaw/sqlclaw/internal/tokens"
)

// schemaContextTokenBudget caps how much schema context is fed into the
// generation prompt; the summary carries the rest.
const schemaContextTokenBudget = 2000

const generationSystemPrompt = `You are an expert data analyst who converts natural language to SQL.
Use the provided database schema context and summary to craft the SQL query.
Make sure the SQL is syntactically valid for SQLite and uses the correct tables and joins.
Respond ONLY in JSON with the following keys:
{ "sql": "<generated_sql>", "explanation": "<brief reasoning>" }`

type generationResponse struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// parseFailureExplanation is the sentinel recorded when no recovery tier
// produced valid JSON and the whole response was taken as SQL.
const parseFailureExplanation = "model did not return valid JSON"

// generateStage turns the effective query plus schema context into SQL. The
// model response is recovered through the tiered parser, and the result is
// forced to start with SELECT as a best-effort read-only guard.
func (e *Engine) generateStage(ctx context.Context, s *session.State) (*session.State, error) {
	query := effectiveQuery(s)
	if strings.TrimSpace(query) == "" {
		return nil, &PreconditionError{Stage: "sql_generation", Missing: "rewritten_query or original_query"}
	}
	if strings.TrimSpace(s.SchemaContext) == "" {
		return nil, &PreconditionError{Stage: "sql_generation", Missing: "schema_context"}
	}

	schemaContext := tokens.Get().Truncate(s.SchemaContext, schemaContextTokenBudget)
	userPrompt := fmt.Sprintf(
		"Schema Context:\n%s\n\nSchema Summary:\n%s\n\nUser Query:\n%s",
		schemaContext, s.SchemaSummary, query,
	)

	sqlQuery := ""
	explanation := ""
	rawOutput := ""

	raw, err := e.provider.Complete(ctx, generationSystemPrompt, userPrompt)
	if err != nil {
		L_warn("generate: service call failed", "error", err)
		explanation = "generation unavailable: " + err.Error()
	} else {
		text := stripCodeFences(raw)
		rawOutput = text

		var parsed generationResponse
		if decodeModelJSON(text, &parsed) {
			sqlQuery = strings.TrimSpace(parsed.SQL)
			explanation = strings.TrimSpace(parsed.Explanation)
		} else {
			// Terminal fallback: the whole response is the SQL
			sqlQuery = strings.TrimSpace(text)
			explanation = parseFailureExplanation
		}
	}

	sqlQuery = enforceSelectPrefix(sqlQuery)

	out := s.Clone()
	out.GeneratedSQL = sqlQuery
	out.SQLExplanation = explanation
	out.GenerationHistory = append(out.GenerationHistory, session.GenerationRecord{
		Time:        e.timestamp(),
		Model:       e.provider.Model(),
		InputQuery:  query,
		OutputSQL:   sqlQuery,
		Explanation: explanation,
		RawOutput:   rawOutput,
	})
	out.Status = session.StatusSQLGenerated
	out.AppendLog("generate: " + truncate(sqlQuery, 100))

	L_info("generate: sql generated", "sql", truncate(sqlQuery, 80))
	return out, nil
}

// enforceSelectPrefix prepends "SELECT " when the SQL does not already start
// with SELECT (case-insensitive, ignoring leading whitespace). A best-effort
// guard, not a guarantee of well-formed SQL.
func enforceSelectPrefix(sqlQuery string) string {
	trimmed := strings.TrimSpace(sqlQuery)
	if trimmed == "" {
		return trimmed
	}
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		L_warn("generate: non-select SQL detected, enforcing read-only prefix")
		return "SELECT " + trimmed
	}
	return trimmed
}

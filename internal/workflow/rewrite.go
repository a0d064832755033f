package workflow

import (
	"context"
	"fmt"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

const rewriterSystemPrompt = `You are a query rewriter for a Text-to-SQL system.
Your task is to rewrite natural-language queries into clear, SQL-friendly questions.
- Preserve user intent.
- Use placeholders like <DATE_RANGE> if needed.
- Return JSON with: rewritten_query, explanation, metadata.`

// sqlTerms are the literal substrings whose absence marks a query as vague
// enough to want rewriting.
var sqlTerms = []string{"select", "from", "where", "join", "table", "column"}

// DecideIfRewrite reports whether a query should be rewritten: true when it
// has fewer than 6 whitespace-delimited tokens or mentions none of the common
// SQL terms. Advisory only; the pipeline does not branch on it.
func DecideIfRewrite(query string) bool {
	tokens := len(strings.Fields(query))
	lower := strings.ToLower(query)
	hasSQLTerm := false
	for _, term := range sqlTerms {
		if strings.Contains(lower, term) {
			hasSQLTerm = true
			break
		}
	}
	return tokens < 6 || !hasSQLTerm
}

type rewriteResponse struct {
	RewrittenQuery string         `json:"rewritten_query"`
	Explanation    string         `json:"explanation"`
	Metadata       map[string]any `json:"metadata"`
}

// rewriteStage asks the text-generation service for a SQL-friendly rephrasing
// of the original question. Service or parse failures fall back to the
// original query text; the run continues either way.
func (e *Engine) rewriteStage(ctx context.Context, s *session.State) (*session.State, error) {
	query := strings.TrimSpace(s.OriginalQuery)
	if query == "" {
		return nil, &PreconditionError{Stage: "rewrite", Missing: "original_query"}
	}

	userPrompt := fmt.Sprintf("Original user question: %q\nReturn JSON as instructed.", query)

	rewritten := query
	explanation := ""
	var metadata map[string]any

	raw, err := e.provider.Complete(ctx, rewriterSystemPrompt, userPrompt)
	if err != nil {
		L_warn("rewrite: service call failed, keeping original query", "error", err)
		explanation = "rewrite unavailable: " + err.Error()
	} else {
		text := stripCodeFences(raw)
		var parsed rewriteResponse
		if decodeModelJSON(text, &parsed) {
			if q := strings.TrimSpace(parsed.RewrittenQuery); q != "" {
				rewritten = q
			}
			explanation = parsed.Explanation
			metadata = parsed.Metadata
		} else {
			// Unparseable response: treat the whole text as the rewrite
			if t := strings.TrimSpace(text); t != "" {
				rewritten = t
			}
			explanation = "parse-fallback"
		}
	}

	out := s.Clone()
	out.RewrittenQuery = rewritten
	out.RewriteExplanation = explanation
	out.RewriteHistory = append(out.RewriteHistory, session.RewriteRecord{
		Time:        e.timestamp(),
		Model:       e.provider.Model(),
		Input:       query,
		Output:      rewritten,
		Explanation: explanation,
		Metadata:    metadata,
	})
	out.Status = session.StatusQueryRewritten
	out.AppendLog("rewrite: " + truncate(rewritten, 80))

	L_info("rewrite: query rewritten", "output", truncate(rewritten, 60))
	return out, nil
}

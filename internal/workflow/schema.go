package workflow

import (
	"context"
	"fmt"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

const schemaTopK = 3

const summarizerSystemPrompt = "You are a database schema summarizer."

// schemaStage retrieves the schema docs most similar to the effective query,
// concatenates them into the session's schema context, and asks the
// text-generation service for a short summary of the retrieved tables.
func (e *Engine) schemaStage(ctx context.Context, s *session.State) (*session.State, error) {
	query := effectiveQuery(s)
	if strings.TrimSpace(query) == "" {
		return nil, &PreconditionError{Stage: "schema_retrieval", Missing: "rewritten_query or original_query"}
	}

	out := s.Clone()

	docs, err := e.index.Search(ctx, query, schemaTopK)
	if err != nil {
		// Index failure is recorded in-state; the missing schema context
		// surfaces at the generation stage's precondition.
		L_error("schema: retrieval failed", "error", err)
		out.AppendLog("schema: retrieval failed: " + err.Error())
		out.Status = session.StatusSchemaRetrieved
		return out, nil
	}

	var texts []string
	var tables []string
	for _, d := range docs {
		texts = append(texts, d.Text)
		tables = append(tables, d.TableName)
	}
	out.SchemaContext = strings.Join(texts, "\n")
	out.RelevantTables = tables
	out.RAGDocs = texts

	// Compress the retrieved context into a short summary for later prompts
	summaryPrompt := fmt.Sprintf(
		"Schema context:\n%s\n\nUser query: %s\nSummarize key tables and relations.",
		out.SchemaContext, query,
	)
	summary, err := e.provider.Complete(ctx, summarizerSystemPrompt, summaryPrompt)
	if err != nil {
		L_warn("schema: summary call failed", "error", err)
		summary = "schema summary unavailable: " + err.Error()
	}
	out.SchemaSummary = strings.TrimSpace(summary)

	out.Status = session.StatusSchemaRetrieved
	out.AppendLog(fmt.Sprintf("schema: retrieved %d tables: %s", len(tables), strings.Join(tables, ", ")))

	L_info("schema: context retrieved", "tables", tables)
	return out, nil
}

// Package workflow implements the natural-language-to-SQL pipeline: a fixed
// sequence of seven stages that each extend a session state and hand it on.
package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sqlclaw/sqlclaw/internal/llm"
	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/schemaindex"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

// PreconditionError reports a required session field missing at stage entry.
// It is the only error class that aborts a run; every other failure is
// recorded in-state and the pipeline continues.
type PreconditionError struct {
	Stage   string
	Missing string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: missing %s in session state", e.Stage, e.Missing)
}

// Engine runs the fixed pipeline over one session state:
//
//	rewrite -> schema retrieval -> generation -> validation ->
//	execution -> visualization -> explanation
//
// There are no conditional edges and no per-stage retries. A stage that
// fails reports it via the session status and its history record, and the
// engine continues to the next stage. That continue-past-failure behavior is
// a callable contract, not an accident: callers inspect the terminal state's
// status and explanation fields, never an error channel.
type Engine struct {
	provider llm.Provider
	index    *schemaindex.Manager
	db       *sql.DB // data source, read-only use

	now func() time.Time
}

// NewEngine wires the pipeline's collaborators. db is the relational data
// source used for dry-run validation and execution.
func NewEngine(provider llm.Provider, index *schemaindex.Manager, db *sql.DB) *Engine {
	return &Engine{
		provider: provider,
		index:    index,
		db:       db,
		now:      time.Now,
	}
}

type stage struct {
	name string
	run  func(context.Context, *session.State) (*session.State, error)
}

// Run carries state through all seven stages in order. The input must have a
// non-empty OriginalQuery. The returned error is always a *PreconditionError;
// all other failure modes live in the returned state.
func (e *Engine) Run(ctx context.Context, initial *session.State) (*session.State, error) {
	if initial == nil || strings.TrimSpace(initial.OriginalQuery) == "" {
		return nil, &PreconditionError{Stage: "run", Missing: "original_query"}
	}

	L_info("workflow: run started", "session", initial.SessionID, "query", truncate(initial.OriginalQuery, 60))

	// Advisory rewrite decision; the fixed graph does not branch on it
	s := initial.Clone()
	s.NeedsRewrite = DecideIfRewrite(s.OriginalQuery)

	stages := []stage{
		{"rewrite", e.rewriteStage},
		{"schema_retrieval", e.schemaStage},
		{"sql_generation", e.generateStage},
		{"validation", e.validateStage},
		{"execution", e.executeStage},
		{"visualization", e.visualizeStage},
		{"explanation", e.explainStage},
	}

	for _, st := range stages {
		next, err := st.run(ctx, s)
		if err != nil {
			L_error("workflow: stage aborted run", "stage", st.name, "error", err)
			return nil, err
		}
		next.Touch(e.now())
		s = next
		L_debug("workflow: stage done", "stage", st.name, "status", s.Status)
	}

	L_info("workflow: run finished", "session", s.SessionID, "status", s.Status)
	return s, nil
}

// effectiveQuery returns the rewritten query when present, else the original.
func effectiveQuery(s *session.State) string {
	if strings.TrimSpace(s.RewrittenQuery) != "" {
		return s.RewrittenQuery
	}
	return s.OriginalQuery
}

// effectiveSQL prefers validated SQL over generated SQL.
func effectiveSQL(s *session.State) string {
	if strings.TrimSpace(s.ValidatedSQL) != "" {
		return s.ValidatedSQL
	}
	return s.GeneratedSQL
}

func (e *Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func truncate(text string, maxLen int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

// Package session defines the state record threaded through the workflow.
//
// Every stage receives a *State, clones it, extends the clone, and returns
// it. History slices are append-only: a stage appends exactly one record per
// invocation and never edits or reorders prior entries, so a session can be
// replayed and audited from its histories alone.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Status names the last stage that ran, or its failure mode.
type Status string

const (
	StatusQueryRewritten   Status = "query_rewritten"
	StatusSchemaRetrieved  Status = "schema_retrieved"
	StatusSQLGenerated     Status = "sql_generated"
	StatusValidated        Status = "validated"
	StatusValidationFailed Status = "validation_failed"
	StatusQueryExecuted    Status = "query_executed"
	StatusExecutionFailed  Status = "execution_failed"
	StatusVisualReady      Status = "visual_ready"
	StatusExplained        Status = "explained"
)

// ChartType enumerates the supported visualization shapes.
type ChartType string

const (
	ChartTable   ChartType = "table"
	ChartBar     ChartType = "bar"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
)

// ExecutionResult is the structured outcome of running SQL against the data
// source. On failure it carries the zeroed shape with Error set.
type ExecutionResult struct {
	Success       bool             `json:"success"`
	Columns       []string         `json:"columns"`
	Rows          []map[string]any `json:"rows"`
	RowCount      int              `json:"row_count"`
	ExecutionTime float64          `json:"execution_time"` // wall-clock seconds, rounded to 4 decimals
	Error         string           `json:"error,omitempty"`
}

// ChartSpec describes the inferred visualization for a result set.
type ChartSpec struct {
	ChartType ChartType `json:"chart_type"`
	XAxis     string    `json:"x_axis,omitempty"`
	YAxis     string    `json:"y_axis,omitempty"`
	Reasoning string    `json:"reasoning"`
}

// VisualAssets holds the current chart spec, a capped data preview, and the
// history of specs produced for this session.
type VisualAssets struct {
	Spec        ChartSpec             `json:"spec"`
	DataPreview []map[string]any      `json:"data_preview"`
	History     []VisualizationRecord `json:"history"`
}

// RewriteRecord is one rewrite-stage invocation.
type RewriteRecord struct {
	Time        string         `json:"time"`
	Model       string         `json:"model"`
	Input       string         `json:"input"`
	Output      string         `json:"output"`
	Explanation string         `json:"explanation"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// GenerationRecord is one SQL-generation invocation. RawOutput preserves the
// unparsed model response for audit.
type GenerationRecord struct {
	Time        string `json:"time"`
	Model       string `json:"model"`
	InputQuery  string `json:"input_query"`
	OutputSQL   string `json:"output_sql"`
	Explanation string `json:"explanation"`
	RawOutput   string `json:"raw_output"`
}

// ValidationRecord is one safety-gate decision.
type ValidationRecord struct {
	Time        string `json:"time"`
	SQL         string `json:"sql"`
	Passed      bool   `json:"passed"`
	Explanation string `json:"explanation"`
}

// ExecutionRecord is one execution attempt.
type ExecutionRecord struct {
	Time          string  `json:"time"`
	Query         string  `json:"query"`
	Success       bool    `json:"success"`
	RowCount      int     `json:"row_count"`
	ExecutionTime float64 `json:"execution_time"`
	Error         string  `json:"error,omitempty"`
}

// ExplanationRecord is one explanation-stage invocation.
type ExplanationRecord struct {
	Time        string `json:"time"`
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
	RowsUsed    int    `json:"rows_used"`
}

// VisualizationRecord is one chart-inference invocation.
type VisualizationRecord struct {
	Time string    `json:"time"`
	Spec ChartSpec `json:"spec"`
}

// State is the session record carried through all workflow stages.
type State struct {
	// Core session info
	UserID       string `json:"user_id,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	Status       Status `json:"status,omitempty"`
	NeedsRewrite bool   `json:"needs_rewrite"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`

	// Query lineage
	OriginalQuery      string `json:"original_query"`
	RewrittenQuery     string `json:"rewritten_query,omitempty"`
	RewriteExplanation string `json:"rewrite_explanation,omitempty"`

	// Schema context
	SchemaContext  string   `json:"schema_context,omitempty"`
	SchemaSummary  string   `json:"schema_summary,omitempty"`
	RelevantTables []string `json:"relevant_tables,omitempty"`
	RAGDocs        []string `json:"rag_docs,omitempty"`

	// SQL lineage
	GeneratedSQL   string `json:"generated_sql,omitempty"`
	ValidatedSQL   string `json:"validated_sql,omitempty"` // set only when validation passed
	SQLExplanation string `json:"sql_explanation,omitempty"`

	// Validation outcome
	ValidationPassed      bool   `json:"validation_passed"`
	ValidationExplanation string `json:"validation_explanation,omitempty"`

	// Execution outcome
	ExecutionResult *ExecutionResult `json:"execution_result,omitempty"`

	// Visualization and explanation
	VisualAssets               *VisualAssets `json:"visual_assets,omitempty"`
	NaturalLanguageExplanation string        `json:"natural_language_explanation,omitempty"`

	// Per-stage histories (append-only, ordered by invocation time)
	RewriteHistory     []RewriteRecord     `json:"rewrite_history,omitempty"`
	GenerationHistory  []GenerationRecord  `json:"generation_history,omitempty"`
	ValidationHistory  []ValidationRecord  `json:"validation_history,omitempty"`
	ExecutionHistory   []ExecutionRecord   `json:"execution_history,omitempty"`
	ExplanationHistory []ExplanationRecord `json:"explanation_history,omitempty"`

	// Debug log lines appended by stages
	Logs []string `json:"logs,omitempty"`
}

// New creates a session state for one request. Identity fields may be filled
// in by the caller afterwards; a SessionID is generated when none is set.
func New(originalQuery string) *State {
	now := time.Now().UTC().Format(time.RFC3339)
	return &State{
		SessionID:     uuid.NewString(),
		OriginalQuery: originalQuery,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Clone returns a copy of the state with independent history slices, so
// extending the copy never mutates the input state.
func (s *State) Clone() *State {
	out := *s

	out.RelevantTables = append([]string(nil), s.RelevantTables...)
	out.RAGDocs = append([]string(nil), s.RAGDocs...)
	out.Logs = append([]string(nil), s.Logs...)

	out.RewriteHistory = append([]RewriteRecord(nil), s.RewriteHistory...)
	out.GenerationHistory = append([]GenerationRecord(nil), s.GenerationHistory...)
	out.ValidationHistory = append([]ValidationRecord(nil), s.ValidationHistory...)
	out.ExecutionHistory = append([]ExecutionRecord(nil), s.ExecutionHistory...)
	out.ExplanationHistory = append([]ExplanationRecord(nil), s.ExplanationHistory...)

	if s.ExecutionResult != nil {
		r := *s.ExecutionResult
		r.Columns = append([]string(nil), s.ExecutionResult.Columns...)
		r.Rows = append([]map[string]any(nil), s.ExecutionResult.Rows...)
		out.ExecutionResult = &r
	}
	if s.VisualAssets != nil {
		v := *s.VisualAssets
		v.DataPreview = append([]map[string]any(nil), s.VisualAssets.DataPreview...)
		v.History = append([]VisualizationRecord(nil), s.VisualAssets.History...)
		out.VisualAssets = &v
	}

	return &out
}

// Touch refreshes UpdatedAt.
func (s *State) Touch(now time.Time) {
	s.UpdatedAt = now.UTC().Format(time.RFC3339)
}

// AppendLog records a free-text debug line on the session.
func (s *State) AppendLog(line string) {
	s.Logs = append(s.Logs, line)
}

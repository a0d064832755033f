package workflow

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

// executeStage runs the validated SQL (falling back to the generated SQL)
// against the data source and records a structured result. No error ever
// crosses this boundary: engine failures become a failed ExecutionResult.
func (e *Engine) executeStage(ctx context.Context, s *session.State) (*session.State, error) {
	sqlQuery := effectiveSQL(s)
	if strings.TrimSpace(sqlQuery) == "" {
		return nil, &PreconditionError{Stage: "execution", Missing: "validated_sql or generated_sql"}
	}

	L_info("execute: running query", "sql", truncate(sqlQuery, 80))

	result := executeReadOnly(ctx, e.db, sqlQuery)

	out := s.Clone()
	out.ExecutionResult = result
	out.ExecutionHistory = append(out.ExecutionHistory, session.ExecutionRecord{
		Time:          e.timestamp(),
		Query:         sqlQuery,
		Success:       result.Success,
		RowCount:      result.RowCount,
		ExecutionTime: result.ExecutionTime,
		Error:         result.Error,
	})
	if result.Success {
		out.Status = session.StatusQueryExecuted
		out.AppendLog("execute: success")
		L_info("execute: query executed", "rows", result.RowCount, "seconds", result.ExecutionTime)
	} else {
		out.Status = session.StatusExecutionFailed
		out.AppendLog("execute: failed: " + result.Error)
		L_warn("execute: query failed", "error", result.Error)
	}

	return out, nil
}

// executeReadOnly runs one query and returns a structured result regardless
// of outcome. Column order is preserved; each row is a column-to-value map.
func executeReadOnly(ctx context.Context, db *sql.DB, sqlQuery string) *session.ExecutionResult {
	start := time.Now()

	rows, err := db.QueryContext(ctx, sqlQuery)
	if err != nil {
		return failedResult(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return failedResult(err)
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return failedResult(err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return failedResult(err)
	}

	elapsed := roundSeconds(time.Since(start))

	return &session.ExecutionResult{
		Success:       true,
		Columns:       columns,
		Rows:          result,
		RowCount:      len(result),
		ExecutionTime: elapsed,
	}
}

func failedResult(err error) *session.ExecutionResult {
	return &session.ExecutionResult{
		Success:  false,
		Columns:  []string{},
		Rows:     []map[string]any{},
		RowCount: 0,
		Error:    err.Error(),
	}
}

// normalizeValue makes driver values JSON-friendly: byte slices become
// strings, everything else passes through.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// roundSeconds converts a duration to non-negative seconds rounded to four
// decimal places.
func roundSeconds(d time.Duration) float64 {
	secs := d.Seconds()
	if secs < 0 {
		secs = 0
	}
	return math.Round(secs*10000) / 10000
}

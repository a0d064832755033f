package workflow

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

// forbiddenKeywords marks SQL as unsafe when any appears as a whole word.
// A denylist is a known-weak boundary; it is the contract here, with the
// read-only EXPLAIN dry run behind it as the second check.
var forbiddenKeywords = []string{"delete", "drop", "update", "insert", "alter", "truncate"}

var forbiddenRe = regexp.MustCompile(`(?i)\b(` + strings.Join(forbiddenKeywords, "|") + `)\b`)

// validationPassedExplanation is recorded when both checks succeed.
const validationPassedExplanation = "SQL syntax is valid and query is read-only."

// validateStage is the safety gate: a case-insensitive whole-word denylist
// scan, then a dry-run EXPLAIN against the data source. The denylist check
// short-circuits before any database interaction. On pass, the validated SQL
// is promoted into the session so downstream stages execute exactly what was
// checked; downstream still tolerates its absence and falls back to the
// generated SQL.
func (e *Engine) validateStage(ctx context.Context, s *session.State) (*session.State, error) {
	sqlQuery := s.GeneratedSQL
	if strings.TrimSpace(sqlQuery) == "" {
		return nil, &PreconditionError{Stage: "validation", Missing: "generated_sql"}
	}

	passed, explanation := e.checkSQL(ctx, sqlQuery)

	out := s.Clone()
	out.ValidationPassed = passed
	out.ValidationExplanation = explanation
	out.ValidationHistory = append(out.ValidationHistory, session.ValidationRecord{
		Time:        e.timestamp(),
		SQL:         sqlQuery,
		Passed:      passed,
		Explanation: explanation,
	})
	if passed {
		out.ValidatedSQL = sqlQuery
		out.Status = session.StatusValidated
		L_info("validate: sql validation passed")
	} else {
		out.Status = session.StatusValidationFailed
		L_warn("validate: sql validation failed", "explanation", explanation)
	}
	out.AppendLog("validate: " + explanation)

	return out, nil
}

// checkSQL runs the two ordered checks and returns pass/fail with an
// explanation. The data source is never contacted when the denylist matches.
func (e *Engine) checkSQL(ctx context.Context, sqlQuery string) (bool, string) {
	if m := forbiddenRe.FindString(sqlQuery); m != "" {
		return false, fmt.Sprintf("Unsafe SQL detected: contains forbidden keyword '%s'", strings.ToUpper(m))
	}

	// Dry run: EXPLAIN plans the statement without executing it
	rows, err := e.db.QueryContext(ctx, "EXPLAIN "+sqlQuery)
	if err != nil {
		return false, fmt.Sprintf("SQL validation failed: %s", err.Error())
	}
	rows.Close()

	return true, validationPassedExplanation
}

package workflow

import (
	"context"
	"testing"

	"github.com/sqlclaw/sqlclaw/internal/session"
)

func TestExecuteReadOnlySuccess(t *testing.T) {
	db := newTestDB(t)

	result := executeReadOnly(context.Background(), db, "SELECT region, amount FROM sales ORDER BY amount")
	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if len(result.Columns) != 2 || result.Columns[0] != "region" || result.Columns[1] != "amount" {
		t.Errorf("unexpected columns: %v", result.Columns)
	}
	if result.RowCount != 2 || len(result.Rows) != 2 {
		t.Errorf("expected 2 rows, got count=%d len=%d", result.RowCount, len(result.Rows))
	}
	if result.Rows[0]["region"] != "EU" {
		t.Errorf("unexpected first row: %v", result.Rows[0])
	}
	if v, ok := result.Rows[0]["amount"].(int64); !ok || v != 100 {
		t.Errorf("expected int64 amount 100, got %T %v", result.Rows[0]["amount"], result.Rows[0]["amount"])
	}
	if result.ExecutionTime < 0 {
		t.Errorf("execution time must be non-negative, got %f", result.ExecutionTime)
	}
	if result.Error != "" {
		t.Errorf("error must be empty on success, got %q", result.Error)
	}
}

func TestExecuteReadOnlyNeverRaises(t *testing.T) {
	db := newTestDB(t)

	for _, bad := range []string{
		"SELECT * FROM missing_table",
		"not sql at all",
		"SELECT FROM WHERE",
	} {
		result := executeReadOnly(context.Background(), db, bad)
		if result.Success {
			t.Errorf("%q: expected failure", bad)
		}
		if result.Error == "" {
			t.Errorf("%q: failure must carry an error message", bad)
		}
		if len(result.Columns) != 0 || len(result.Rows) != 0 || result.RowCount != 0 {
			t.Errorf("%q: failure result must be zeroed, got %+v", bad, result)
		}
		if result.ExecutionTime != 0 {
			t.Errorf("%q: failure execution time must be 0, got %f", bad, result.ExecutionTime)
		}
	}
}

func TestExecuteStagePrefersValidatedSQL(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	s := session.New("q")
	s.GeneratedSQL = "SELECT * FROM missing_table"
	s.ValidatedSQL = "SELECT region FROM sales"

	out, err := e.executeStage(context.Background(), s)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if !out.ExecutionResult.Success {
		t.Fatalf("expected validated sql to run, got error %q", out.ExecutionResult.Error)
	}
	if out.ExecutionHistory[0].Query != s.ValidatedSQL {
		t.Errorf("expected history to record the validated sql, got %q", out.ExecutionHistory[0].Query)
	}
	if out.Status != session.StatusQueryExecuted {
		t.Errorf("unexpected status %q", out.Status)
	}
}

func TestExecuteStageFallsBackToGeneratedSQL(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	s := session.New("q")
	s.GeneratedSQL = "SELECT amount FROM sales"

	out, err := e.executeStage(context.Background(), s)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if !out.ExecutionResult.Success {
		t.Fatalf("expected generated sql to run, got error %q", out.ExecutionResult.Error)
	}
}

func TestExecuteStageRequiresSQL(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	_, err := e.executeStage(context.Background(), session.New("q"))
	if err == nil {
		t.Fatal("expected precondition error without any sql in state")
	}
}

func TestExecuteStageRecordsFailure(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	s := session.New("q")
	s.GeneratedSQL = "SELECT * FROM missing_table"

	out, err := e.executeStage(context.Background(), s)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if out.ExecutionResult.Success {
		t.Error("expected failed execution")
	}
	if out.Status != session.StatusExecutionFailed {
		t.Errorf("unexpected status %q", out.Status)
	}
	rec := out.ExecutionHistory[0]
	if rec.Success || rec.Error == "" || rec.RowCount != 0 {
		t.Errorf("unexpected failure record: %+v", rec)
	}
}

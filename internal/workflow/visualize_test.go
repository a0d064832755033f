package workflow

import (
	"context"
	"reflect"
	"testing"

	"github.com/sqlclaw/sqlclaw/internal/session"
)

func TestInferChartEmpty(t *testing.T) {
	spec := InferChart(nil, nil)
	if spec.ChartType != session.ChartTable {
		t.Errorf("no data must yield table, got %q", spec.ChartType)
	}

	spec = InferChart([]string{"a"}, nil)
	if spec.ChartType != session.ChartTable {
		t.Errorf("no rows must yield table, got %q", spec.ChartType)
	}

	spec = InferChart(nil, []map[string]any{{"a": 1}})
	if spec.ChartType != session.ChartTable {
		t.Errorf("no columns must yield table, got %q", spec.ChartType)
	}
}

func TestInferChartBar(t *testing.T) {
	columns := []string{"region", "amount"}
	rows := []map[string]any{
		{"region": "EU", "amount": 100},
		{"region": "US", "amount": 200},
	}

	spec := InferChart(columns, rows)
	if spec.ChartType != session.ChartBar {
		t.Fatalf("expected bar, got %q", spec.ChartType)
	}
	if spec.XAxis != "region" || spec.YAxis != "amount" {
		t.Errorf("unexpected axes: x=%q y=%q", spec.XAxis, spec.YAxis)
	}
}

func TestInferChartScatter(t *testing.T) {
	columns := []string{"x", "y"}
	rows := []map[string]any{{"x": 1, "y": 2}}

	spec := InferChart(columns, rows)
	if spec.ChartType != session.ChartScatter {
		t.Fatalf("expected scatter, got %q", spec.ChartType)
	}
	if spec.XAxis != "x" || spec.YAxis != "y" {
		t.Errorf("unexpected axes: x=%q y=%q", spec.XAxis, spec.YAxis)
	}
}

func TestInferChartScatterPreservesColumnOrder(t *testing.T) {
	// Axes follow the original column order, not map iteration order
	columns := []string{"price", "label", "quantity"}
	rows := []map[string]any{{"price": 9.5, "label": "a", "quantity": int64(3)}}

	spec := InferChart(columns, rows)
	if spec.ChartType != session.ChartScatter {
		t.Fatalf("expected scatter, got %q", spec.ChartType)
	}
	if spec.XAxis != "price" || spec.YAxis != "quantity" {
		t.Errorf("unexpected axes: x=%q y=%q", spec.XAxis, spec.YAxis)
	}
}

func TestInferChartPie(t *testing.T) {
	columns := []string{"amount"}
	rows := []map[string]any{{"amount": 1}, {"amount": 2}, {"amount": 3}}

	spec := InferChart(columns, rows)
	if spec.ChartType != session.ChartPie {
		t.Fatalf("expected pie, got %q", spec.ChartType)
	}
	if spec.XAxis != "" || spec.YAxis != "amount" {
		t.Errorf("unexpected axes: x=%q y=%q", spec.XAxis, spec.YAxis)
	}
}

func TestInferChartSingleNumericManyRows(t *testing.T) {
	columns := []string{"amount"}
	var rows []map[string]any
	for i := 0; i < 6; i++ {
		rows = append(rows, map[string]any{"amount": i})
	}

	spec := InferChart(columns, rows)
	if spec.ChartType != session.ChartTable {
		t.Errorf("more than 5 rows with one numeric column must yield table, got %q", spec.ChartType)
	}
}

func TestInferChartFirstRowTypingOnly(t *testing.T) {
	// Later rows are not inspected: a string in row 2 does not change the
	// classification made from row 1
	columns := []string{"v"}
	rows := []map[string]any{{"v": int64(1)}, {"v": "oops"}}

	spec := InferChart(columns, rows)
	if spec.ChartType != session.ChartPie {
		t.Errorf("classification must use the first row only, got %q", spec.ChartType)
	}
}

func TestInferChartDeterministic(t *testing.T) {
	columns := []string{"region", "amount"}
	rows := []map[string]any{{"region": "EU", "amount": 100}}

	a := InferChart(columns, rows)
	b := InferChart(columns, rows)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical input must yield identical specs: %+v vs %+v", a, b)
	}
}

func TestVisualizeStagePreviewCap(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	var rows []map[string]any
	for i := 0; i < 25; i++ {
		rows = append(rows, map[string]any{"n": int64(i)})
	}
	s := session.New("q")
	s.ExecutionResult = &session.ExecutionResult{
		Success:  true,
		Columns:  []string{"n"},
		Rows:     rows,
		RowCount: len(rows),
	}

	out, err := e.visualizeStage(context.Background(), s)
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if len(out.VisualAssets.DataPreview) != previewRows {
		t.Errorf("expected preview capped at %d rows, got %d", previewRows, len(out.VisualAssets.DataPreview))
	}
	if out.Status != session.StatusVisualReady {
		t.Errorf("unexpected status %q", out.Status)
	}
}

func TestVisualizeStageAppendsHistory(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	s := session.New("q")
	s.ExecutionResult = &session.ExecutionResult{Success: true, Columns: []string{"n"}, Rows: []map[string]any{{"n": int64(1)}}, RowCount: 1}

	first, err := e.visualizeStage(context.Background(), s)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := e.visualizeStage(context.Background(), first)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(first.VisualAssets.History) != 1 || len(second.VisualAssets.History) != 2 {
		t.Errorf("expected history lengths 1 and 2, got %d and %d",
			len(first.VisualAssets.History), len(second.VisualAssets.History))
	}
}

func TestVisualizeStageToleratesMissingResult(t *testing.T) {
	e := NewEngine(nil, nil, newTestDB(t))

	out, err := e.visualizeStage(context.Background(), session.New("q"))
	if err != nil {
		t.Fatalf("stage failed: %v", err)
	}
	if out.VisualAssets.Spec.ChartType != session.ChartTable {
		t.Errorf("missing result must yield table, got %q", out.VisualAssets.Spec.ChartType)
	}
}

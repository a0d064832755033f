package workflow

import (
	"context"
	"fmt"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
	"github.com/sqlclaw/sqlclaw/internal/session"
)

// previewRows caps the data preview attached to visual assets.
const previewRows = 10

// InferChart maps a result set's shape to a chart spec. Pure and
// deterministic: identical input always yields the identical spec.
//
// Numeric classification looks only at the first row's value types; later
// rows are not inspected for consistency. That imprecision is part of the
// contract.
func InferChart(columns []string, rows []map[string]any) session.ChartSpec {
	if len(columns) == 0 || len(rows) == 0 {
		return session.ChartSpec{
			ChartType: session.ChartTable,
			Reasoning: "No data available; defaulting to table visualization.",
		}
	}

	firstRow := rows[0]
	var numericCols, categoricalCols []string
	for _, col := range columns {
		if isNumeric(firstRow[col]) {
			numericCols = append(numericCols, col)
		} else {
			categoricalCols = append(categoricalCols, col)
		}
	}

	switch {
	case len(numericCols) >= 2:
		return session.ChartSpec{
			ChartType: session.ChartScatter,
			XAxis:     numericCols[0],
			YAxis:     numericCols[1],
			Reasoning: "Detected multiple numeric columns; scatter plot suitable.",
		}
	case len(numericCols) == 1 && len(categoricalCols) >= 1:
		return session.ChartSpec{
			ChartType: session.ChartBar,
			XAxis:     categoricalCols[0],
			YAxis:     numericCols[0],
			Reasoning: fmt.Sprintf("Detected categorical + numeric data; using bar chart with %s on X-axis.", categoricalCols[0]),
		}
	case len(numericCols) == 1 && len(rows) <= 5:
		return session.ChartSpec{
			ChartType: session.ChartPie,
			YAxis:     numericCols[0],
			Reasoning: "Small dataset with one numeric column; pie chart suitable.",
		}
	default:
		return session.ChartSpec{
			ChartType: session.ChartTable,
			Reasoning: "Data not suitable for visual chart; showing as table.",
		}
	}
}

// isNumeric reports whether a value is integer or floating-point typed.
func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// visualizeStage derives a chart spec and a capped data preview from the
// execution result. A missing or failed result still yields a table spec.
func (e *Engine) visualizeStage(ctx context.Context, s *session.State) (*session.State, error) {
	var columns []string
	var rows []map[string]any
	if s.ExecutionResult != nil {
		columns = s.ExecutionResult.Columns
		rows = s.ExecutionResult.Rows
	}

	spec := InferChart(columns, rows)

	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	out := s.Clone()

	var history []session.VisualizationRecord
	if s.VisualAssets != nil {
		history = append(history, s.VisualAssets.History...)
	}
	history = append(history, session.VisualizationRecord{
		Time: e.timestamp(),
		Spec: spec,
	})

	out.VisualAssets = &session.VisualAssets{
		Spec:        spec,
		DataPreview: preview,
		History:     history,
	}
	out.Status = session.StatusVisualReady
	out.AppendLog("visualize: " + string(spec.ChartType))

	L_info("visualize: chart spec ready", "chartType", spec.ChartType)
	return out, nil
}

package tools

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/wcharczuk/go-chart/v2"
)

// ChartTool renders query results as PNG charts into artifact storage.
// Rendering itself is delegated to go-chart; this tool owns the input
// contract and the artifact metadata.
type ChartTool struct {
	backend QueryBackend
	store   ArtifactStore
}

func NewChartTool(backend QueryBackend, store ArtifactStore) *ChartTool {
	return &ChartTool{backend: backend, store: store}
}

func (t *ChartTool) Name() string { return "chart" }

func (t *ChartTool) Operations() []string {
	return []string{"bar_chart", "line_chart", "pie_chart", "scatter_plot", "auto"}
}

func (t *ChartTool) Execute(ctx context.Context, operation string, params map[string]any) ToolResult {
	chartType := strings.TrimSuffix(operation, "_chart")
	switch operation {
	case "bar_chart", "line_chart", "pie_chart", "scatter_plot", "auto":
	default:
		return unknownOperation(t, operation)
	}

	columns, rows, failure := sourceRows(ctx, t.backend, params)
	if failure != nil {
		return *failure
	}

	xCol, yCol, err := pickAxes(columns, rows, params)
	if err != nil {
		return Fail(KindValidationRejected, err.Error())
	}

	if operation == "auto" {
		chartType = suggestChartType(rows)
	}
	if operation == "scatter_plot" {
		chartType = "scatter"
	}

	title := paramString(params, "title")
	if title == "" {
		title = fmt.Sprintf("%s por %s", yCol, xCol)
	}

	name := fmt.Sprintf("chart_%s_%s.png", chartType, uuid.NewString()[:8])
	art, err := t.store.Save(name, func(w io.Writer) error {
		return renderChart(w, chartType, rows, xCol, yCol, title)
	})
	if err != nil {
		log.Printf("[ChartTool] render failed type=%s err=%v", chartType, err)
		return Fail(KindToolInternalError, "could not render the chart")
	}

	log.Printf("[ChartTool] ok type=%s rows=%d file=%s", chartType, len(rows), art.Name)
	return OK(art.Path, map[string]any{
		"file_path":  art.Path,
		"file_name":  art.Name,
		"public_url": art.PublicURL,
		"media_type": "image",
		"chart_type": chartType,
		"row_count":  len(rows),
	})
}

func renderChart(f io.Writer, chartType string, rows []map[string]any, xCol, yCol, title string) error {
	switch chartType {
	case "bar":
		return chart.BarChart{
			Title:    title,
			Width:    1024,
			Height:   512,
			BarWidth: 50,
			Bars:     labeledValues(rows, xCol, yCol),
		}.Render(chart.PNG, f)

	case "pie":
		return chart.PieChart{
			Title:  title,
			Width:  640,
			Height: 640,
			Values: labeledValues(rows, xCol, yCol),
		}.Render(chart.PNG, f)

	case "line", "scatter":
		xs, ys := continuousSeries(rows, yCol)
		style := chart.Style{}
		if chartType == "scatter" {
			style = chart.Style{StrokeWidth: chart.Disabled, DotWidth: 4}
		}
		return chart.Chart{
			Title:  title,
			Width:  1024,
			Height: 512,
			Series: []chart.Series{
				chart.ContinuousSeries{Name: yCol, Style: style, XValues: xs, YValues: ys},
			},
		}.Render(chart.PNG, f)
	}

	return fmt.Errorf("unsupported chart type %q", chartType)
}

// pickAxes resolves x/y columns from params, defaulting to the first
// non-numeric column as x and the first numeric column as y.
func pickAxes(columns []string, rows []map[string]any, params map[string]any) (string, string, error) {
	xCol := paramString(params, "x_column")
	yCol := paramString(params, "y_column")
	if xCol != "" && yCol != "" {
		return xCol, yCol, nil
	}

	if len(rows) == 0 {
		return "", "", fmt.Errorf("no data to chart")
	}
	first := rows[0]
	for _, col := range columns {
		_, numeric := toFloat(first[col])
		if xCol == "" && !numeric {
			xCol = col
		}
		if yCol == "" && numeric {
			yCol = col
		}
	}
	if yCol == "" {
		return "", "", fmt.Errorf("no numeric column found for the chart")
	}
	if xCol == "" {
		xCol = columns[0]
	}
	return xCol, yCol, nil
}

// suggestChartType mirrors the heuristic of the original visualizer: small
// categorical sets render as pie, ordered series as line, the rest as bars.
func suggestChartType(rows []map[string]any) string {
	if len(rows) <= 5 {
		return "pie"
	}
	if len(rows) > 20 {
		return "line"
	}
	return "bar"
}

func labeledValues(rows []map[string]any, xCol, yCol string) []chart.Value {
	values := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		y, ok := toFloat(row[yCol])
		if !ok {
			continue
		}
		values = append(values, chart.Value{Label: cellString(row[xCol]), Value: y})
	}
	return values
}

func continuousSeries(rows []map[string]any, yCol string) ([]float64, []float64) {
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	for i, row := range rows {
		y, ok := toFloat(row[yCol])
		if !ok {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, y)
	}
	return xs, ys
}

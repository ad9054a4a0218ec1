package tools

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/montanaflynn/stats"
)

// StatsTool computes descriptive statistics over a numeric column of a row
// set. The math is delegated to the stats library; this tool owns column
// selection and the result shape.
type StatsTool struct {
	backend QueryBackend
}

func NewStatsTool(backend QueryBackend) *StatsTool {
	return &StatsTool{backend: backend}
}

func (t *StatsTool) Name() string { return "stats" }

func (t *StatsTool) Operations() []string {
	return []string{"metrics", "growth_rate", "moving_average", "percentiles", "correlation", "outliers"}
}

func (t *StatsTool) Execute(ctx context.Context, operation string, params map[string]any) ToolResult {
	switch operation {
	case "metrics", "growth_rate", "moving_average", "percentiles", "correlation", "outliers":
	default:
		return unknownOperation(t, operation)
	}

	columns, rows, failure := sourceRows(ctx, t.backend, params)
	if failure != nil {
		return *failure
	}

	if operation == "correlation" {
		return t.correlation(columns, rows, params)
	}

	column, values, res := numericColumn(columns, rows, params, "column")
	if res != nil {
		return *res
	}

	var (
		data any
		err  error
	)
	switch operation {
	case "metrics":
		data, err = describe(values)
	case "growth_rate":
		data, err = growthRate(values)
	case "moving_average":
		window := paramInt(params, "window", 3)
		data, err = movingAverage(values, window)
	case "percentiles":
		data, err = percentiles(values)
	case "outliers":
		data, err = outliers(values)
	}
	if err != nil {
		log.Printf("[StatsTool] %s failed column=%s err=%v", operation, column, err)
		return Fail(KindExecutionFailed, err.Error())
	}

	log.Printf("[StatsTool] ok op=%s column=%s n=%d", operation, column, len(values))
	return OK(data, map[string]any{"column": column, "sample_size": len(values)})
}

func (t *StatsTool) correlation(columns []string, rows []map[string]any, params map[string]any) ToolResult {
	xCol, xs, res := numericColumn(columns, rows, params, "x_column")
	if res != nil {
		return *res
	}
	yCol, ys, res := numericColumn(columns, rows, params, "y_column")
	if res != nil {
		return *res
	}
	if len(xs) != len(ys) {
		return Fail(KindValidationRejected,
			fmt.Sprintf("columns %s and %s have different numeric lengths", xCol, yCol))
	}

	r, err := stats.Correlation(xs, ys)
	if err != nil {
		return Fail(KindExecutionFailed, err.Error())
	}

	log.Printf("[StatsTool] ok op=correlation x=%s y=%s n=%d", xCol, yCol, len(xs))
	return OK(map[string]any{
		"coefficient": round2(r),
		"strength":    correlationStrength(r),
	}, map[string]any{"x_column": xCol, "y_column": yCol, "sample_size": len(xs)})
}

// numericColumn resolves a named (or defaulted) column and extracts its
// numeric values.
func numericColumn(columns []string, rows []map[string]any, params map[string]any, key string) (string, []float64, *ToolResult) {
	column := paramString(params, key)
	if column == "" && key == "column" {
		for _, col := range columns {
			if len(rows) > 0 {
				if _, ok := toFloat(rows[0][col]); ok {
					column = col
					break
				}
			}
		}
	}
	if column == "" {
		res := Fail(KindValidationRejected, fmt.Sprintf("parameter %q is required", key))
		return "", nil, &res
	}

	values := columnValues(rows, column)
	if len(values) == 0 {
		res := Fail(KindValidationRejected,
			fmt.Sprintf("column %s has no numeric values", column))
		return "", nil, &res
	}
	return column, values, nil
}

func describe(values []float64) (map[string]any, error) {
	sum, err := stats.Sum(values)
	if err != nil {
		return nil, err
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(values)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(values)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(values)
	if err != nil {
		return nil, err
	}
	stddev := 0.0
	if len(values) > 1 {
		stddev, err = stats.StandardDeviation(values)
		if err != nil {
			return nil, err
		}
	}
	return map[string]any{
		"count":  len(values),
		"sum":    round2(sum),
		"mean":   round2(mean),
		"median": round2(median),
		"min":    round2(min),
		"max":    round2(max),
		"stddev": round2(stddev),
	}, nil
}

// growthRate returns the percentage change between consecutive values plus
// the overall change first to last.
func growthRate(values []float64) (map[string]any, error) {
	if len(values) < 2 {
		return nil, fmt.Errorf("growth rate needs at least two values")
	}

	periods := make([]any, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			periods = append(periods, nil)
			continue
		}
		periods = append(periods, round2((values[i]-prev)/prev*100))
	}

	out := map[string]any{"period_growth_pct": periods}
	if values[0] != 0 {
		out["total_growth_pct"] = round2((values[len(values)-1] - values[0]) / values[0] * 100)
	}
	return out, nil
}

func movingAverage(values []float64, window int) (map[string]any, error) {
	if window < 2 {
		return nil, fmt.Errorf("window must be at least 2")
	}
	if len(values) < window {
		return nil, fmt.Errorf("need at least %d values for a window of %d", window, window)
	}

	averages := make([]float64, 0, len(values)-window+1)
	for i := window; i <= len(values); i++ {
		mean, err := stats.Mean(values[i-window : i])
		if err != nil {
			return nil, err
		}
		averages = append(averages, round2(mean))
	}
	return map[string]any{"window": window, "values": averages}, nil
}

func percentiles(values []float64) (map[string]any, error) {
	out := map[string]any{}
	for _, p := range []float64{25, 50, 75, 90, 95} {
		v, err := stats.Percentile(values, p)
		if err != nil {
			return nil, err
		}
		out[fmt.Sprintf("p%d", int(p))] = round2(v)
	}
	return out, nil
}

func outliers(values []float64) (map[string]any, error) {
	found, err := stats.QuartileOutliers(values)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"mild":    []float64(found.Mild),
		"extreme": []float64(found.Extreme),
	}, nil
}

func correlationStrength(r float64) string {
	abs := r
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 0.8:
		return "fuerte"
	case abs >= 0.5:
		return "moderada"
	case abs >= 0.3:
		return "débil"
	default:
		return "nula"
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

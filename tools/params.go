package tools

import (
	"fmt"
	"sort"
	"strconv"
)

// Parameter extraction helpers. Intent parameters arrive as map[string]any
// decoded from JSON, so numbers may be float64 and row sets may be []any.

func paramString(params map[string]any, key string) string {
	v, _ := params[key].(string)
	return v
}

func paramInt(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func paramBool(params map[string]any, key string) bool {
	v, _ := params[key].(bool)
	return v
}

func paramMap(params map[string]any, key string) map[string]any {
	v, _ := params[key].(map[string]any)
	return v
}

// paramRows accepts []map[string]any as produced by the executor or []any as
// decoded from JSON.
func paramRows(params map[string]any, key string) []map[string]any {
	switch v := params[key].(type) {
	case []map[string]any:
		return v
	case []any:
		rows := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, m)
			}
		}
		return rows
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// columnValues extracts one numeric column, preserving row order and
// skipping non-numeric cells.
func columnValues(rows []map[string]any, column string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if f, ok := toFloat(row[column]); ok {
			out = append(out, f)
		}
	}
	return out
}

// columnsOf returns a deterministic column order for bare row sets.
func columnsOf(rows []map[string]any) []string {
	if len(rows) == 0 {
		return nil
	}
	cols := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

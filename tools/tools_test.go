package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"evodata/storage"
)

func testStore(t *testing.T) *storage.Local {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir(), "http://localhost/exports")
	require.NoError(t, err)
	return store
}

// fakeBackend records the statements it receives and plays back canned rows.
type fakeBackend struct {
	lastSQL    string
	lastParams map[string]any
	result     ToolResult
}

func (f *fakeBackend) RunQuery(_ context.Context, sqlText string, params map[string]any, _ time.Duration) ToolResult {
	f.lastSQL = sqlText
	f.lastParams = params
	return f.result
}

func (f *fakeBackend) CallProcedure(_ context.Context, name string, params map[string]any) ToolResult {
	f.lastSQL = "CALL " + name
	f.lastParams = params
	return f.result
}

func tableResult(columns []string, rows []map[string]any) ToolResult {
	return OK(TableData{Columns: columns, Rows: rows, RowCount: len(rows)}, nil)
}

func salesRows() ([]string, []map[string]any) {
	return []string{"mes", "total"}, []map[string]any{
		{"mes": "enero", "total": 100.0},
		{"mes": "febrero", "total": 150.0},
		{"mes": "marzo", "total": 120.0},
	}
}

func TestEveryToolRejectsUnknownOperation(t *testing.T) {
	backend := &fakeBackend{}
	all := []Tool{
		NewQueryTool(backend, "analytics"),
		NewChartTool(backend, testStore(t)),
		NewExcelTool(backend, testStore(t)),
		NewStatsTool(backend),
	}

	for _, tool := range all {
		t.Run(tool.Name(), func(t *testing.T) {
			res := tool.Execute(context.Background(), "no_such_op", nil)
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, KindValidationRejected, res.ErrorKind())
			assert.Contains(t, res.Error, "no_such_op")
			assert.Contains(t, res.Error, tool.Name())
		})
	}
}

func TestQueryToolPassesSQLThroughBackend(t *testing.T) {
	columns, rows := salesRows()
	backend := &fakeBackend{result: tableResult(columns, rows)}
	tool := NewQueryTool(backend, "analytics")

	res := tool.Execute(context.Background(), "execute_query", map[string]any{
		"sql":    "SELECT * FROM ventas WHERE fecha >= :fecha",
		"params": map[string]any{"fecha": "2026-01-01"},
	})

	require.True(t, res.Success())
	assert.Equal(t, "SELECT * FROM ventas WHERE fecha >= :fecha", backend.lastSQL)
	assert.Equal(t, map[string]any{"fecha": "2026-01-01"}, backend.lastParams)
}

func TestQueryToolRequiresSQL(t *testing.T) {
	tool := NewQueryTool(&fakeBackend{}, "analytics")
	res := tool.Execute(context.Background(), "execute_query", map[string]any{})
	assert.Equal(t, KindValidationRejected, res.ErrorKind())
}

func TestQueryToolCatalogOperations(t *testing.T) {
	columns, rows := salesRows()
	backend := &fakeBackend{result: tableResult(columns, rows)}
	tool := NewQueryTool(backend, "analytics")

	res := tool.Execute(context.Background(), "list_tables", nil)
	require.True(t, res.Success())
	assert.Contains(t, backend.lastSQL, "information_schema.tables")
	assert.Equal(t, "analytics", backend.lastParams["table_schema"])

	res = tool.Execute(context.Background(), "get_schema", map[string]any{"table_name": "ventas"})
	require.True(t, res.Success())
	assert.Contains(t, backend.lastSQL, "information_schema.columns")
	assert.Equal(t, "ventas", backend.lastParams["table_name"])

	res = tool.Execute(context.Background(), "get_schema", nil)
	assert.Equal(t, KindValidationRejected, res.ErrorKind())
}

func TestChartToolRendersPNG(t *testing.T) {
	_, rows := salesRows()
	tool := NewChartTool(&fakeBackend{}, testStore(t))

	for _, op := range []string{"bar_chart", "line_chart", "pie_chart", "scatter_plot"} {
		t.Run(op, func(t *testing.T) {
			res := tool.Execute(context.Background(), op, map[string]any{
				"rows": rows, "x_column": "mes", "y_column": "total",
			})
			require.True(t, res.Success(), "error: %s", res.Error)

			path, ok := res.Data.(string)
			require.True(t, ok)
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
			assert.Equal(t, ".png", filepath.Ext(path))
			assert.Equal(t, 3, res.Metadata["row_count"])
			assert.Contains(t, res.Metadata["public_url"], "http://localhost/exports/")
		})
	}
}

func TestChartToolFetchesRowsThroughBackend(t *testing.T) {
	columns, rows := salesRows()
	backend := &fakeBackend{result: tableResult(columns, rows)}
	tool := NewChartTool(backend, testStore(t))

	res := tool.Execute(context.Background(), "bar_chart", map[string]any{
		"sql": "SELECT mes, total FROM ventas",
	})
	require.True(t, res.Success(), "error: %s", res.Error)
	assert.Equal(t, "SELECT mes, total FROM ventas", backend.lastSQL)
}

func TestChartToolPropagatesBackendRejection(t *testing.T) {
	backend := &fakeBackend{result: Fail(KindValidationRejected, "disallowed keyword: DROP")}
	tool := NewChartTool(backend, testStore(t))

	res := tool.Execute(context.Background(), "bar_chart", map[string]any{
		"sql": "DROP TABLE ventas",
	})
	assert.Equal(t, KindValidationRejected, res.ErrorKind())
}

func TestChartToolRequiresInput(t *testing.T) {
	tool := NewChartTool(&fakeBackend{}, testStore(t))
	res := tool.Execute(context.Background(), "bar_chart", map[string]any{})
	assert.Equal(t, KindValidationRejected, res.ErrorKind())
}

func TestExcelToolCreatesWorkbook(t *testing.T) {
	_, rows := salesRows()
	tool := NewExcelTool(&fakeBackend{}, testStore(t))

	res := tool.Execute(context.Background(), "create_excel", map[string]any{
		"rows": rows, "sheet_name": "Ventas", "include_summary": true,
	})
	require.True(t, res.Success(), "error: %s", res.Error)

	path, ok := res.Data.(string)
	require.True(t, ok)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, ".xlsx", filepath.Ext(path))
	assert.Equal(t, 3, res.Metadata["row_count"])
	assert.Equal(t, 1, res.Metadata["sheet_count"])
}

func TestExcelToolMultiSheet(t *testing.T) {
	_, rows := salesRows()
	tool := NewExcelTool(&fakeBackend{}, testStore(t))

	res := tool.Execute(context.Background(), "multi_sheet_excel", map[string]any{
		"sheets": map[string]any{
			"Ventas":   map[string]any{"rows": rows},
			"Resumen2": map[string]any{"rows": rows},
		},
	})
	require.True(t, res.Success(), "error: %s", res.Error)
	assert.Equal(t, 2, res.Metadata["sheet_count"])
	assert.Equal(t, 6, res.Metadata["row_count"])
}

func TestExcelToolMultiSheetOrderIsDeterministic(t *testing.T) {
	_, rows := salesRows()
	tool := NewExcelTool(&fakeBackend{}, testStore(t))

	res := tool.Execute(context.Background(), "multi_sheet_excel", map[string]any{
		"sheets": map[string]any{
			"Zonas":    map[string]any{"rows": rows},
			"Ventas":   map[string]any{"rows": rows},
			"Clientes": map[string]any{"rows": rows},
		},
	})
	require.True(t, res.Success(), "error: %s", res.Error)

	path, ok := res.Metadata["file_path"].(string)
	require.True(t, ok)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	// tabs come out sorted regardless of map iteration order
	assert.Equal(t, []string{"Clientes", "Ventas", "Zonas"}, f.GetSheetList())
	assert.Equal(t, "Clientes", f.GetSheetName(0))
}

func TestExcelToolRequiresSheets(t *testing.T) {
	tool := NewExcelTool(&fakeBackend{}, testStore(t))
	res := tool.Execute(context.Background(), "multi_sheet_excel", map[string]any{})
	assert.Equal(t, KindValidationRejected, res.ErrorKind())
}

func TestStatsToolMetrics(t *testing.T) {
	_, rows := salesRows()
	tool := NewStatsTool(&fakeBackend{})

	res := tool.Execute(context.Background(), "metrics", map[string]any{
		"rows": rows, "column": "total",
	})
	require.True(t, res.Success(), "error: %s", res.Error)

	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, data["count"])
	assert.InDelta(t, 370.0, data["sum"].(float64), 0.001)
	assert.InDelta(t, 123.33, data["mean"].(float64), 0.001)
	assert.InDelta(t, 120.0, data["median"].(float64), 0.001)
	assert.InDelta(t, 100.0, data["min"].(float64), 0.001)
	assert.InDelta(t, 150.0, data["max"].(float64), 0.001)
}

func TestStatsToolDefaultsToFirstNumericColumn(t *testing.T) {
	_, rows := salesRows()
	tool := NewStatsTool(&fakeBackend{})

	res := tool.Execute(context.Background(), "metrics", map[string]any{"rows": rows})
	require.True(t, res.Success(), "error: %s", res.Error)
	assert.Equal(t, "total", res.Metadata["column"])
}

func TestStatsToolGrowthRate(t *testing.T) {
	rows := []map[string]any{
		{"total": 100.0}, {"total": 150.0}, {"total": 120.0},
	}
	tool := NewStatsTool(&fakeBackend{})

	res := tool.Execute(context.Background(), "growth_rate", map[string]any{
		"rows": rows, "column": "total",
	})
	require.True(t, res.Success(), "error: %s", res.Error)

	data := res.Data.(map[string]any)
	periods := data["period_growth_pct"].([]any)
	require.Len(t, periods, 2)
	assert.InDelta(t, 50.0, periods[0].(float64), 0.001)
	assert.InDelta(t, -20.0, periods[1].(float64), 0.001)
	assert.InDelta(t, 20.0, data["total_growth_pct"].(float64), 0.001)
}

func TestStatsToolMovingAverage(t *testing.T) {
	rows := []map[string]any{
		{"v": 1.0}, {"v": 2.0}, {"v": 3.0}, {"v": 4.0},
	}
	tool := NewStatsTool(&fakeBackend{})

	res := tool.Execute(context.Background(), "moving_average", map[string]any{
		"rows": rows, "column": "v", "window": 2,
	})
	require.True(t, res.Success(), "error: %s", res.Error)

	data := res.Data.(map[string]any)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, data["values"])
}

func TestStatsToolCorrelation(t *testing.T) {
	rows := []map[string]any{
		{"x": 1.0, "y": 2.0}, {"x": 2.0, "y": 4.0}, {"x": 3.0, "y": 6.0},
	}
	tool := NewStatsTool(&fakeBackend{})

	res := tool.Execute(context.Background(), "correlation", map[string]any{
		"rows": rows, "x_column": "x", "y_column": "y",
	})
	require.True(t, res.Success(), "error: %s", res.Error)

	data := res.Data.(map[string]any)
	assert.InDelta(t, 1.0, data["coefficient"].(float64), 0.001)
	assert.Equal(t, "fuerte", data["strength"])
}

func TestStatsToolRejectsNonNumericColumn(t *testing.T) {
	_, rows := salesRows()
	tool := NewStatsTool(&fakeBackend{})

	res := tool.Execute(context.Background(), "metrics", map[string]any{
		"rows": rows, "column": "mes",
	})
	assert.Equal(t, KindValidationRejected, res.ErrorKind())
}

func TestRegistryLookup(t *testing.T) {
	backend := &fakeBackend{}
	reg := NewRegistry(
		NewQueryTool(backend, "analytics"),
		NewStatsTool(backend),
	)

	tool, ok := reg.Get("query")
	require.True(t, ok)
	assert.Equal(t, "query", tool.Name())

	_, ok = reg.Get("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"query", "stats"}, reg.Names())
}

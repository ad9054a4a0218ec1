package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// QueryBackend is the validated execution pipeline the query-backed tools
// share. Implemented by the executor package; every statement that passes
// through it has transited the validator and parameter binding.
type QueryBackend interface {
	RunQuery(ctx context.Context, sqlText string, params map[string]any, timeout time.Duration) ToolResult
	CallProcedure(ctx context.Context, name string, params map[string]any) ToolResult
}

// QueryTool exposes the executor through the tool contract.
type QueryTool struct {
	backend       QueryBackend
	defaultSchema string
}

// NewQueryTool wraps a query backend. defaultSchema scopes the catalog
// operations when the request does not name a schema.
func NewQueryTool(backend QueryBackend, defaultSchema string) *QueryTool {
	return &QueryTool{backend: backend, defaultSchema: defaultSchema}
}

func (t *QueryTool) Name() string { return "query" }

func (t *QueryTool) Operations() []string {
	return []string{"execute_query", "call_procedure", "list_tables", "get_schema"}
}

func (t *QueryTool) Execute(ctx context.Context, operation string, params map[string]any) ToolResult {
	switch operation {
	case "execute_query":
		return t.executeQuery(ctx, params)
	case "call_procedure":
		return t.callProcedure(ctx, params)
	case "list_tables":
		return t.listTables(ctx, params)
	case "get_schema":
		return t.getSchema(ctx, params)
	default:
		return unknownOperation(t, operation)
	}
}

func (t *QueryTool) executeQuery(ctx context.Context, params map[string]any) ToolResult {
	sqlText := paramString(params, "sql")
	if strings.TrimSpace(sqlText) == "" {
		return Fail(KindValidationRejected, "parameter 'sql' is required")
	}

	queryParams := paramMap(params, "params")
	if queryParams == nil {
		queryParams = map[string]any{}
	}

	var timeout time.Duration
	if secs := paramInt(params, "timeout_seconds", 0); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	return t.backend.RunQuery(ctx, sqlText, queryParams, timeout)
}

func (t *QueryTool) callProcedure(ctx context.Context, params map[string]any) ToolResult {
	name := paramString(params, "procedure")
	if strings.TrimSpace(name) == "" {
		return Fail(KindValidationRejected, "parameter 'procedure' is required")
	}

	procParams := paramMap(params, "params")
	if procParams == nil {
		procParams = map[string]any{}
	}

	return t.backend.CallProcedure(ctx, name, procParams)
}

func (t *QueryTool) listTables(ctx context.Context, params map[string]any) ToolResult {
	schema := paramString(params, "schema")
	if schema == "" {
		schema = t.defaultSchema
	}

	const q = `SELECT TABLE_NAME, TABLE_ROWS, ENGINE
FROM information_schema.tables
WHERE TABLE_SCHEMA = :table_schema
ORDER BY TABLE_NAME`

	return t.backend.RunQuery(ctx, q, map[string]any{"table_schema": schema}, 0)
}

func (t *QueryTool) getSchema(ctx context.Context, params map[string]any) ToolResult {
	table := paramString(params, "table_name")
	if strings.TrimSpace(table) == "" {
		return Fail(KindValidationRejected, "parameter 'table_name' is required")
	}
	schema := paramString(params, "schema")
	if schema == "" {
		schema = t.defaultSchema
	}

	const q = `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT
FROM information_schema.columns
WHERE TABLE_SCHEMA = :table_schema AND TABLE_NAME = :table_name
ORDER BY ORDINAL_POSITION`

	return t.backend.RunQuery(ctx, q, map[string]any{
		"table_schema": schema,
		"table_name":   table,
	}, 0)
}

// unknownOperation is the shared error result for an operation outside a
// tool's enumerated set.
func unknownOperation(t Tool, operation string) ToolResult {
	return Fail(KindValidationRejected, fmt.Sprintf(
		"operation %q not supported by tool %s, available: %s",
		operation, t.Name(), strings.Join(t.Operations(), ", ")))
}

// sourceRows resolves the tabular input of a rendering/statistics tool:
// either inline "rows" or a "sql"+"params" pair run through the validated
// backend. Returns a failure result when neither yields data.
func sourceRows(ctx context.Context, backend QueryBackend, params map[string]any) ([]string, []map[string]any, *ToolResult) {
	if rows := paramRows(params, "rows"); len(rows) > 0 {
		return columnsOf(rows), rows, nil
	}

	sqlText := paramString(params, "sql")
	if strings.TrimSpace(sqlText) == "" {
		res := Fail(KindValidationRejected, "either 'rows' or 'sql' is required")
		return nil, nil, &res
	}

	queryParams := paramMap(params, "params")
	if queryParams == nil {
		queryParams = map[string]any{}
	}

	res := backend.RunQuery(ctx, sqlText, queryParams, 0)
	if !res.Success() {
		return nil, nil, &res
	}

	table, ok := res.Data.(TableData)
	if !ok || len(table.Rows) == 0 {
		empty := Fail(KindExecutionFailed, "query returned no rows to work with")
		return nil, nil, &empty
	}

	return table.Columns, table.Rows, nil
}

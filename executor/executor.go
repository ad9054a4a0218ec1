// Package executor runs validated, parameter-bound read queries against the
// shared MySQL pool and maps every outcome onto the uniform tool result
// envelope. Nothing here raises past its boundary.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"

	"evodata/config"
	"evodata/databases"
	"evodata/tools"
	"evodata/validator"
)

// Request is one query execution request. Parameters are bound by name via
// :name placeholders, never interpolated into the text.
type Request struct {
	SQL     string
	Params  map[string]any
	Timeout time.Duration
}

// Options tunes pool acquisition and statement deadlines.
type Options struct {
	AcquireTimeout    time.Duration
	StatementTimeout  time.Duration
	AllowedProcedures []string
}

// Executor owns access to the pool on behalf of the tools. The pool itself
// is the process-wide singleton from the databases package.
type Executor struct {
	db               *sql.DB
	validator        *validator.Validator
	acquireTimeout   time.Duration
	statementTimeout time.Duration
	procedures       map[string]struct{}
}

var procedureName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// New builds an Executor over an existing pool.
func New(db *sql.DB, v *validator.Validator, opts Options) *Executor {
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = 5 * time.Second
	}
	if opts.StatementTimeout <= 0 {
		opts.StatementTimeout = 30 * time.Second
	}
	procs := make(map[string]struct{}, len(opts.AllowedProcedures))
	for _, p := range opts.AllowedProcedures {
		procs[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return &Executor{
		db:               db,
		validator:        v,
		acquireTimeout:   opts.AcquireTimeout,
		statementTimeout: opts.StatementTimeout,
		procedures:       procs,
	}
}

// NewFromConfig builds an Executor from the database/security config sections.
func NewFromConfig(db *sql.DB, v *validator.Validator) *Executor {
	cfg := config.AppConfig
	return New(db, v, Options{
		AcquireTimeout:    cfg.Database.AcquireTimeout,
		StatementTimeout:  cfg.Database.StatementTimeout,
		AllowedProcedures: cfg.Security.AllowedProcedures,
	})
}

// Execute validates the request and, if accepted, runs it with bound
// parameters under the statement timeout.
func (e *Executor) Execute(ctx context.Context, req Request) tools.ToolResult {
	verdict := e.validator.Validate(req.SQL, req.Params)
	if !verdict.Allowed {
		log.Printf("[Executor] rejected reason=%q", verdict.Reason)
		return tools.Fail(tools.KindValidationRejected, verdict.Reason)
	}

	rewritten, args, err := rewriteNamed(req.SQL, req.Params)
	if err != nil {
		// The validator guarantees placeholder/parameter correspondence, so
		// this only fires on a policy/rewrite mismatch.
		log.Printf("[Executor] rewrite failed err=%v", err)
		return tools.Fail(tools.KindExecutionFailed, "could not bind query parameters")
	}

	return e.run(ctx, rewritten, args, req.Timeout, nil)
}

// RunQuery is the flat-argument form of Execute, satisfying the query
// backend contract the tools depend on.
func (e *Executor) RunQuery(ctx context.Context, sqlText string, params map[string]any, timeout time.Duration) tools.ToolResult {
	return e.Execute(ctx, Request{SQL: sqlText, Params: params, Timeout: timeout})
}

// CallProcedure invokes a pre-registered stored procedure by name with
// parameters bound in sorted key order.
func (e *Executor) CallProcedure(ctx context.Context, name string, params map[string]any) tools.ToolResult {
	trimmed := strings.TrimSpace(name)
	if !procedureName.MatchString(trimmed) {
		return tools.Fail(tools.KindValidationRejected,
			fmt.Sprintf("invalid procedure name: %q", name))
	}
	if _, ok := e.procedures[strings.ToLower(trimmed)]; !ok {
		return tools.Fail(tools.KindValidationRejected,
			fmt.Sprintf("procedure %s is not registered", trimmed))
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(keys))
	marks := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, params[k])
		marks = append(marks, "?")
	}

	// The statement is assembled from the vetted name only; user values
	// travel exclusively as bound arguments.
	stmt := fmt.Sprintf("CALL %s(%s)", trimmed, strings.Join(marks, ", "))
	extra := map[string]any{"procedure": trimmed, "parameter_order": keys}
	return e.run(ctx, stmt, args, 0, extra)
}

// run acquires one scoped connection, executes under the statement deadline
// and classifies the outcome. The connection is returned to the pool on
// every exit path.
func (e *Executor) run(ctx context.Context, query string, args []any, timeout time.Duration, extra map[string]any) tools.ToolResult {
	acquireCtx, cancelAcquire := context.WithTimeout(ctx, e.acquireTimeout)
	conn, err := e.db.Conn(acquireCtx)
	cancelAcquire()
	if err != nil {
		log.Printf("[Executor] acquire failed err=%v", err)
		return tools.Fail(tools.KindConnectionUnavailable,
			"database connection unavailable, try again shortly")
	}
	defer conn.Close()

	if timeout <= 0 {
		timeout = e.statementTimeout
	}
	stmtCtx, cancelStmt := context.WithTimeout(ctx, timeout)
	defer cancelStmt()

	start := time.Now()
	rows, err := conn.QueryContext(stmtCtx, query, args...)
	if err != nil {
		return e.classify(err, stmtCtx, timeout)
	}
	defer rows.Close()

	columns, data, err := databases.ScanRows(rows)
	if err != nil {
		return e.classify(err, stmtCtx, timeout)
	}

	elapsed := time.Since(start)
	log.Printf("[Executor] ok rows=%d duration=%s", len(data), elapsed)

	metadata := map[string]any{
		"row_count":         len(data),
		"execution_time_ms": elapsed.Milliseconds(),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	return tools.OK(tools.TableData{Columns: columns, Rows: data, RowCount: len(data)}, metadata)
}

// classify maps a driver error to the result contract without leaking raw
// driver detail to the caller. Full detail goes to the server log.
func (e *Executor) classify(err error, stmtCtx context.Context, timeout time.Duration) tools.ToolResult {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(stmtCtx.Err(), context.DeadlineExceeded) {
		log.Printf("[Executor] timeout after=%s err=%v", timeout, err)
		return tools.Timeout(fmt.Sprintf("query exceeded the %s time limit", timeout))
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		log.Printf("[Executor] engine error code=%d err=%v", mysqlErr.Number, err)
		return tools.Fail(tools.KindExecutionFailed, "the query was rejected by the database engine")
	}

	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		log.Printf("[Executor] connection lost err=%v", err)
		return tools.Fail(tools.KindConnectionUnavailable,
			"database connection unavailable, try again shortly")
	}

	log.Printf("[Executor] execution failed err=%v", err)
	return tools.Fail(tools.KindExecutionFailed, "query execution failed")
}

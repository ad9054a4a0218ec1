package executor

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evodata/tools"
	"evodata/validator"
)

func newTestExecutor(t *testing.T) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	v := validator.New(
		[]string{"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE", "INSERT", "UPDATE",
			"GRANT", "REVOKE", "EXEC", "EXECUTE", "CALL"},
		[]string{"SELECT", "WITH"},
		10000,
	)
	e := New(db, v, Options{
		AcquireTimeout:    time.Second,
		StatementTimeout:  2 * time.Second,
		AllowedProcedures: []string{"reporte_mensual"},
	})
	return e, mock
}

func TestExecuteBindsNamedParameters(t *testing.T) {
	e, mock := newTestExecutor(t)

	rows := sqlmock.NewRows([]string{"id", "total"}).AddRow(1, 99.5)
	mock.ExpectQuery(`SELECT \* FROM ventas WHERE fecha >= \? AND cliente = \?`).
		WithArgs("2026-01-01", "acme").
		WillReturnRows(rows)

	res := e.Execute(context.Background(), Request{
		SQL:    "SELECT * FROM ventas WHERE fecha >= :fecha AND cliente = :cliente",
		Params: map[string]any{"fecha": "2026-01-01", "cliente": "acme"},
	})

	require.True(t, res.Success(), "error: %s", res.Error)
	table, ok := res.Data.(tools.TableData)
	require.True(t, ok)
	assert.Equal(t, 1, table.RowCount)
	assert.Equal(t, []string{"id", "total"}, table.Columns)
	assert.Equal(t, 1, res.Metadata["row_count"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteInjectionValueStaysLiteral(t *testing.T) {
	e, mock := newTestExecutor(t)

	payload := "'; DROP TABLE t; --"
	mock.ExpectQuery(`SELECT \* FROM ventas WHERE cliente = \?`).
		WithArgs(payload).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res := e.Execute(context.Background(), Request{
		SQL:    "SELECT * FROM ventas WHERE cliente = :x",
		Params: map[string]any{"x": payload},
	})

	require.True(t, res.Success(), "error: %s", res.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteRejectsUnsafeSQLBeforeTheDriver(t *testing.T) {
	e, mock := newTestExecutor(t)

	res := e.Execute(context.Background(), Request{SQL: "DROP TABLE ventas"})

	assert.Equal(t, tools.StatusError, res.Status)
	assert.Equal(t, tools.KindValidationRejected, res.ErrorKind())
	// nothing may reach the database on rejection
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteClassifiesEngineError(t *testing.T) {
	e, mock := newTestExecutor(t)

	mock.ExpectQuery(`SELECT \* FROM no_existe`).
		WillReturnError(&mysql.MySQLError{Number: 1146, Message: "Table 'no_existe' doesn't exist"})

	res := e.Execute(context.Background(), Request{SQL: "SELECT * FROM no_existe"})

	assert.Equal(t, tools.StatusError, res.Status)
	assert.Equal(t, tools.KindExecutionFailed, res.ErrorKind())
	assert.NotContains(t, res.Error, "no_existe")
}

func TestExecuteTimeout(t *testing.T) {
	e, mock := newTestExecutor(t)

	mock.ExpectQuery(`SELECT SLEEP`).
		WillDelayFor(300 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"x"}))

	res := e.Execute(context.Background(), Request{
		SQL:     "SELECT SLEEP(10) AS x FROM dual",
		Timeout: 50 * time.Millisecond,
	})

	assert.Equal(t, tools.StatusTimeout, res.Status)
	assert.Equal(t, tools.KindExecutionTimeout, res.ErrorKind())
}

func TestPoolBaselineRestoredAfterEveryOutcome(t *testing.T) {
	e, mock := newTestExecutor(t)

	mock.ExpectQuery(`SELECT 1`).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(`SELECT boom`).
		WillReturnError(&mysql.MySQLError{Number: 1064, Message: "syntax error"})
	mock.ExpectQuery(`SELECT slow`).
		WillDelayFor(300 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"x"}))

	ok := e.Execute(context.Background(), Request{SQL: "SELECT 1"})
	failed := e.Execute(context.Background(), Request{SQL: "SELECT boom"})
	timedOut := e.Execute(context.Background(), Request{
		SQL:     "SELECT slow FROM dual",
		Timeout: 50 * time.Millisecond,
	})

	require.Equal(t, tools.StatusSuccess, ok.Status)
	require.Equal(t, tools.StatusError, failed.Status)
	require.Equal(t, tools.StatusTimeout, timedOut.Status)

	// every path must have returned its connection
	assert.Equal(t, 0, e.db.Stats().InUse)
}

func TestCallProcedureAllowList(t *testing.T) {
	e, mock := newTestExecutor(t)

	res := e.CallProcedure(context.Background(), "no_registrado", nil)
	assert.Equal(t, tools.KindValidationRejected, res.ErrorKind())

	res = e.CallProcedure(context.Background(), "x; DROP TABLE t", nil)
	assert.Equal(t, tools.KindValidationRejected, res.ErrorKind())

	mock.ExpectQuery(`CALL reporte_mensual\(\?, \?\)`).
		WithArgs(2026, 12).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(100))

	res = e.CallProcedure(context.Background(), "reporte_mensual",
		map[string]any{"mes": 12, "anio": 2026})
	require.True(t, res.Success(), "error: %s", res.Error)
	assert.Equal(t, "reporte_mensual", res.Metadata["procedure"])
	assert.Equal(t, []string{"anio", "mes"}, res.Metadata["parameter_order"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewriteNamed(t *testing.T) {
	query, args, err := rewriteNamed(
		"SELECT * FROM v WHERE a = :a AND t = ':not_a_param' AND b = :b",
		map[string]any{"a": 1, "b": 2})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM v WHERE a = ? AND t = ':not_a_param' AND b = ?", query)
	assert.Equal(t, []any{1, 2}, args)

	_, _, err = rewriteNamed("SELECT :missing", map[string]any{})
	assert.Error(t, err)
}

package databases

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanRowsConvertsBytesToStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"cliente", "total"}).
			AddRow([]byte("acme"), 150.5).
			AddRow([]byte("globex"), nil))

	rows, err := db.Query("SELECT cliente, total FROM ventas")
	require.NoError(t, err)
	defer rows.Close()

	cols, data, err := ScanRows(rows)
	require.NoError(t, err)

	assert.Equal(t, []string{"cliente", "total"}, cols)
	require.Len(t, data, 2)
	assert.Equal(t, "acme", data[0]["cliente"])
	assert.Equal(t, 150.5, data[0]["total"])
	assert.Equal(t, "globex", data[1]["cliente"])
	assert.Nil(t, data[1]["total"])
}

func TestPingWithoutInitFails(t *testing.T) {
	assert.Error(t, Ping(context.Background()))
}

package databases

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/go-sql-driver/mysql"

	"evodata/config"
)

var (
	dbInstance *sql.DB
	dbMu       sync.RWMutex
)

// InitDB opens the process-wide connection pool. Safe to call once at startup.
func InitDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	if dbInstance != nil {
		return nil
	}

	dsn := config.AppConfig.GetDSN()
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}

	cfg := config.AppConfig.Database
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return fmt.Errorf("ping mysql: %w", err)
	}

	dbInstance = conn
	return nil
}

// GetDB returns the shared pool. The pool is referenced, never owned, by
// callers; only CloseDB releases it.
func GetDB() (*sql.DB, error) {
	dbMu.RLock()
	defer dbMu.RUnlock()
	if dbInstance == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	return dbInstance, nil
}

// CloseDB closes the pool at shutdown.
func CloseDB() error {
	dbMu.Lock()
	defer dbMu.Unlock()
	if dbInstance == nil {
		return nil
	}
	err := dbInstance.Close()
	dbInstance = nil
	return err
}

// Ping verifies the pool is reachable, for health checks.
func Ping(ctx context.Context) error {
	db, err := GetDB()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// ScanRows materializes a result set as ordered rows of column->value.
// []byte values become strings so results serialize cleanly as JSON.
func ScanRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	values := make([]any, len(cols))
	args := make([]any, len(cols))
	for i := range values {
		args[i] = &values[i]
	}

	var result []map[string]any
	for rows.Next() {
		if err := rows.Scan(args...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return cols, result, nil
}

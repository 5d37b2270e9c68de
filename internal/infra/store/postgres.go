package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres opens the shared pool. maxConns should cover the peak
// in-cycle concurrency (fetch workers plus a small margin for the API).
func OpenPostgres(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := PingCtx(db, 5*time.Second); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func PingCtx(db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return db.PingContext(ctx)
}

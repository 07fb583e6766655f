package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQL opens a sqlx handle for the sqlite3 or postgres driver.
func OpenSQL(ctx context.Context, driver, dsn string) (*sqlx.DB, func(), error) {
	switch driver {
	case "postgres":
		return openPostgres(ctx, dsn)
	case "sqlite3":
		return openSQLite(ctx, dsn)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openPostgres(ctx context.Context, dsn string) (*sqlx.DB, func(), error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres db: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

func openSQLite(ctx context.Context, dsn string) (*sqlx.DB, func(), error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

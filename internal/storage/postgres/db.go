// Package postgres stores the workflow aggregates in PostgreSQL, one JSONB
// document per aggregate next to the columns queries filter on.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"parcours/pkg/platform/sentinel"
	txcontext "parcours/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

// Pool tunes the connection pool.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects through the pgx driver and checks the connection.
func Open(ctx context.Context, dsn string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs queries on the transaction of the unit of work, or on the
// transaction carried by ctx, or on the pool.
type conn struct {
	db *sql.DB
	tx *sql.Tx
}

func (c conn) execer(ctx context.Context) dbExecutor {
	if c.tx != nil {
		return c.tx
	}
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return c.db
}

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

// translate maps driver errors onto sentinels.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, sentinel.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure:
			return fmt.Errorf("%s: %s: %w", what, pgErr.ConstraintName, sentinel.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}

func getOne[V any](ctx context.Context, c conn, what, query string, args ...any) (*V, error) {
	var data []byte
	if err := c.execer(ctx).QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		return nil, translate(err, what)
	}
	v := new(V)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	return v, nil
}

func getMany[V any](ctx context.Context, c conn, what, query string, args ...any) ([]*V, error) {
	rows, err := c.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, what)
	}
	defer rows.Close()

	var out []*V
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		v := new(V)
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, what)
	}
	return out, nil
}

func exec(ctx context.Context, c conn, what, query string, args ...any) error {
	_, err := c.execer(ctx).ExecContext(ctx, query, args...)
	return translate(err, what)
}

func encode(v any, what string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", what, err)
	}
	return b, nil
}

// Package postgres contains PostgreSQL implementations of repository interfaces.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxConn is a minimal abstraction over a single Postgres connection,
// used by repositories. It is implemented by *pgx.Conn and pgxmock.PgxConnIface.
type PgxConn interface {
	// Exec executes a SQL command and returns the command tag.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// BeginTx starts a transaction with the provided options.
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	// Close closes the connection.
	Close(ctx context.Context) error
}

// DB wraps one exclusively owned connection to satisfy repository constructors and allow testing.
type DB struct{ Conn PgxConn }

// New opens a single connection for the given DSN.
func New(ctx context.Context, dsn string) (*DB, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{Conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close(ctx context.Context) error { return db.Conn.Close(ctx) }

// describe prefixes Postgres errors with their SQLSTATE class.
func describe(err error) error {
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return fmt.Errorf("sqlstate %s: %w", pg.Code, err)
	}
	return err
}

var _ PgxConn = (*pgx.Conn)(nil)

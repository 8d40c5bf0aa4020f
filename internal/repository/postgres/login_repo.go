package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/and161185/login-etl/internal/errs"
	"github.com/and161185/login-etl/internal/model"
	"github.com/jackc/pgx/v5"
)

// Table is the destination table for masked login records.
const Table = "user_logins"

// CreateTableSQL is the idempotent DDL for Table.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS user_logins(user_id varchar(128),device_type varchar(32),masked_ip varchar(256),masked_device_id varchar(256),locale varchar(32),app_version varchar(32),create_date date);`

// maxParams is the PostgreSQL bind parameter limit for one statement.
const maxParams = 65535

// LoginRepo implements LoginRepository using PostgreSQL.
type LoginRepo struct{ db *DB }

// NewLoginRepo constructs a login repository.
func NewLoginRepo(db *DB) *LoginRepo { return &LoginRepo{db: db} }

// EnsureTable runs CreateTableSQL in its own transaction.
func (r *LoginRepo) EnsureTable(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: ensure %s: %w", errs.ErrSchema, Table, describe(err))
		}
	}()

	tx, err := r.db.Conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	_, err = tx.Exec(ctx, CreateTableSQL)
	return err
}

// Load inserts all records with a single multi-row INSERT inside one transaction.
func (r *LoginRepo) Load(ctx context.Context, records []model.MaskedLoginRecord) (err error) {
	if len(records) == 0 {
		return nil
	}
	q, args, err := BuildInsert(records)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrLoad, err)
	}

	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: insert %d rows: %w", errs.ErrLoad, len(records), describe(err))
		}
	}()

	tx, err := r.db.Conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	_, err = tx.Exec(ctx, q, args...)
	return err
}

// Close closes the connection owned by the repository.
func (r *LoginRepo) Close(ctx context.Context) error { return r.db.Close(ctx) }

// BuildInsert renders one INSERT statement covering every record, with
// positional parameters in model.MaskedColumns order.
func BuildInsert(records []model.MaskedLoginRecord) (string, []any, error) {
	cols := model.MaskedColumns
	if n := len(records) * len(cols); n > maxParams {
		return "", nil, fmt.Errorf("batch of %d rows needs %d parameters, limit %d", len(records), n, maxParams)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(Table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(records)*len(cols))
	p := 1
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range cols {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(p))
			p++
		}
		sb.WriteByte(')')
		args = append(args, rec.Values()...)
	}
	return sb.String(), args, nil
}

// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/login-etl/internal/model"
)

// LoginRepository persists masked login records into the user_logins table.
type LoginRepository interface {
	// EnsureTable creates user_logins if it does not exist. Safe to call repeatedly.
	EnsureTable(ctx context.Context) error

	// Load inserts the whole batch in one transaction: all rows or none.
	Load(ctx context.Context, records []model.MaskedLoginRecord) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

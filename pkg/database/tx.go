package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// WithinTx runs fn inside a transaction, rolling back on error.
func WithinTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// TxManager gives services a transaction boundary without handing them the
// full connection pool.
type TxManager struct {
	db *sqlx.DB
}

// NewTxManager constructs a TxManager over the pool.
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// Within runs fn inside a transaction, rolling back on error.
func (m *TxManager) Within(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithinTx(ctx, m.db, fn)
}

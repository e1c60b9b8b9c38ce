package service

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// txRunner is the transaction boundary the workflow services run their
// multi-row writes through. Tests substitute a runner that hands the closure
// a nil tx alongside mock repositories.
type txRunner interface {
	Within(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

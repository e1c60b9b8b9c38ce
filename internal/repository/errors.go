package repository

import (
	"github.com/lib/pq"

	appErrors "github.com/uok-ict/portal-api/pkg/errors"
)

// Postgres error classes treated as retryable conflicts. Allocation reads
// carry no row reservation, so a losing writer surfaces here as a unique
// violation and must be retried rather than reported.
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
)

func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch string(pqErr.Code) {
		case pqUniqueViolation, pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
			return appErrors.Wrap(err, appErrors.ErrTransientStorage.Code, appErrors.ErrTransientStorage.Status, appErrors.ErrTransientStorage.Message)
		}
	}
	return err
}

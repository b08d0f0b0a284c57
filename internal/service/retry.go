package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"civicfix/internal/errors"
)

// retryBackoff is the pause before the single internal retry of a
// transient failure.
const retryBackoff = 100 * time.Millisecond

// withRetry runs fn, retrying exactly once on Conflict or StorageError.
// Business-rule errors are terminal and surface immediately.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, errors.ErrConflict) && !stderrors.Is(err, errors.ErrStorage) {
		return err
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(retryBackoff):
	}
	return fn()
}

// mapStoreErr converts a gorm error into the engine taxonomy: a missing row
// is NotFound, anything else is a retryable StorageError.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.ErrNotFound
	}
	return fmt.Errorf("%w: %v", errors.ErrStorage, err)
}

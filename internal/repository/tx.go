package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrReferenced reports that a row cannot be removed while other rows use it.
var ErrReferenced = errors.New("row is referenced")

// ItemError ties a batch failure to the id that caused it.
type ItemError struct {
	ID  string
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// QueryObserver receives query latencies.
type QueryObserver interface {
	ObserveDBQuery(query string, duration time.Duration)
}

func observe(observer QueryObserver, label string, start time.Time) {
	if observer == nil {
		return
	}
	observer.ObserveDBQuery(label, time.Since(start))
}

const advisoryLockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

// inLockedTx runs fn inside one transaction after taking a transaction-scoped
// advisory lock per key in sorted order. The transaction rolls back when fn fails.
func inLockedTx(ctx context.Context, db *sqlx.DB, keys []string, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	var last string
	for i, key := range sorted {
		if i > 0 && key == last {
			continue
		}
		last = key
		if _, err = tx.ExecContext(ctx, advisoryLockQuery, key); err != nil {
			return fmt.Errorf("lock %s: %w", key, err)
		}
	}

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bibdup/internal/logging"
	"bibdup/internal/records"
	"bibdup/internal/services"
)

// Executor finalizes an auto-merge by deleting the new record while keeping
// the existing candidate untouched. Every deletion is raced against a
// timeout so a hanging store call cannot stall the batch; on timeout the
// store state is treated as unknown, never as success.
type Executor struct {
	store   records.Library
	logger  *slog.Logger
	timeout time.Duration
}

// NewExecutor builds an Executor with the given per-deletion budget.
func NewExecutor(store records.Library, logger *slog.Logger, timeout time.Duration) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultPolicy().DeleteTimeout
	}
	return &Executor{
		store:   store,
		logger:  logging.NewComponentLogger(logger, "merge"),
		timeout: timeout,
	}
}

// Merge deletes the new record in favor of the existing candidate. The kept
// record is never modified. A MergeAction is returned only when the deletion
// succeeded; every failure path returns a categorized error instead.
func (e *Executor) Merge(ctx context.Context, newRec records.Record, cand Candidate) (MergeAction, error) {
	ctx = services.WithRecordKey(ctx, newRec.Key())
	if err := e.deletable(newRec); err != nil {
		return MergeAction{}, err
	}

	if err := e.deleteWithTimeout(ctx, newRec.Key()); err != nil {
		return MergeAction{}, err
	}

	e.log(ctx).Info("auto-merged duplicate record",
		logging.String("kept_key", cand.Record.Key()),
		logging.String("deleted_key", newRec.Key()),
		logging.Int("score", cand.Score))

	return MergeAction{
		Action:     ActionKeptExisting,
		KeptKey:    cand.Record.Key(),
		DeletedKey: newRec.Key(),
		Reason:     cand.Reason,
		Score:      cand.Score,
		Success:    true,
		Message:    fmt.Sprintf("kept existing record %s, deleted duplicate %s", cand.Record.Key(), newRec.Key()),
	}, nil
}

// DeleteByKey removes a record directly, outside batch processing. The same
// preconditions apply; the timeout budget is the caller's, typically longer
// than the auto-merge budget.
func (e *Executor) DeleteByKey(ctx context.Context, key string) error {
	ctx = services.WithRecordKey(ctx, key)
	rec, err := e.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return err
		}
		return services.ClassifyStoreError("merge", "delete", err)
	}
	if err := e.deletable(rec); err != nil {
		return err
	}
	return e.deleteWithTimeout(ctx, key)
}

// deletable checks the merge preconditions: the owning collection must be
// editable and the record must not already be deleted.
func (e *Executor) deletable(rec records.Record) error {
	if rec.IsDeleted() {
		return services.Wrap(services.ErrValidation, "merge", "delete",
			fmt.Sprintf("record %s is already deleted", rec.Key()), nil)
	}
	if !rec.IsEditable() {
		return services.Wrap(services.ErrValidation, "merge", "delete",
			fmt.Sprintf("collection of record %s is not editable", rec.Key()), nil)
	}
	return nil
}

// log scopes the executor logger to the record key carried by ctx, so every
// line from one deletion is attributable without threading the key around.
func (e *Executor) log(ctx context.Context) *slog.Logger {
	if key, ok := services.RecordKeyFromContext(ctx); ok {
		return e.logger.With(logging.String(logging.FieldRecordKey, key))
	}
	return e.logger
}

// deleteWithTimeout races the store deletion against the budget. The delete
// runs in its own goroutine because a hung store call must not outlive the
// deadline; on timeout the record may or may not have been deleted.
func (e *Executor) deleteWithTimeout(ctx context.Context, key string) error {
	deadline, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- e.store.Delete(deadline, key)
	}()

	select {
	case err := <-done:
		if err != nil {
			return services.ClassifyStoreError("merge", "delete", err)
		}
		return nil
	case <-deadline.Done():
		e.log(ctx).Warn("record deletion timed out, store state unknown",
			logging.Duration("budget", e.timeout))
		return services.Wrap(services.ErrTimeout, "merge", "delete",
			fmt.Sprintf("deletion of record %s exceeded %s budget", key, e.timeout), deadline.Err())
	}
}

package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"bibdup/internal/identify"
	"bibdup/internal/logging"
	"bibdup/internal/records"
	"bibdup/internal/services"
)

// Engine coordinates duplicate resolution over a batch of newly created
// records. Records are evaluated sequentially so deletions never run
// concurrently, and each record's evaluation is isolated: an unexpected
// failure becomes a batch error entry instead of aborting the batch.
type Engine struct {
	store    records.Library
	logger   *slog.Logger
	policy   Policy
	searcher *Searcher
	executor *Executor
}

// New builds an Engine over the given library store.
func New(store records.Library, logger *slog.Logger, policy Policy) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	policy = policy.normalized()
	return &Engine{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "dedup"),
		policy:   policy,
		searcher: NewSearcher(store, logger, policy),
		executor: NewExecutor(store, logger, policy.DeleteTimeout),
	}
}

// Process evaluates every record in the batch and returns the accumulated
// result. The input slice is never modified; Records in the result is a new
// list in which each auto-merged record is replaced by the record that was
// kept in its place.
func (e *Engine) Process(ctx context.Context, batch []records.Record) ProcessingResult {
	result := ProcessingResult{
		AutoMerged:         []MergeAction{},
		PossibleDuplicates: []FlaggedDuplicate{},
		Errors:             []string{},
		Records:            make([]records.Record, len(batch)),
	}
	copy(result.Records, batch)

	for i, rec := range batch {
		if rec == nil {
			continue
		}
		recCtx := services.WithRecordKey(ctx, rec.Key())
		kept := e.evaluateRecord(recCtx, rec, &result)
		if kept != nil {
			result.Records[i] = kept
		}
	}

	result.Processed = true
	attrs := []logging.Attr{
		logging.Int("records", len(batch)),
		logging.Int("auto_merged", len(result.AutoMerged)),
		logging.Int("flagged", len(result.PossibleDuplicates)),
		logging.Int("errors", len(result.Errors)),
	}
	if batchID, ok := services.BatchIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldBatchID, batchID))
	}
	e.logger.Info("batch processing complete", logging.Args(attrs...)...)
	return result
}

// evaluateRecord resolves one record and returns the record kept in its
// place when an auto-merge succeeded, nil otherwise. Panics are recovered
// into batch errors so one record cannot take down its siblings.
func (e *Engine) evaluateRecord(ctx context.Context, rec records.Record, result *ProcessingResult) (kept records.Record) {
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record %s: evaluation panicked: %v", rec.Key(), r))
			kept = nil
		}
	}()

	set := identify.Extract(rec)
	candidates := e.searcher.Search(ctx, set, rec.Key())
	if len(candidates) == 0 {
		return nil
	}

	for _, cand := range candidates {
		switch {
		case cand.Score >= e.policy.AutoMergeThreshold:
			action, err := e.executor.Merge(ctx, rec, cand)
			if err == nil {
				result.AutoMerged = append(result.AutoMerged, action)
				return cand.Record
			}
			category := services.Category(err)
			e.logger.Warn("auto-merge failed, degrading to flag",
				logging.String(logging.FieldRecordKey, rec.Key()),
				logging.String("existing_key", cand.Record.Key()),
				logging.String("category", category),
				logging.Error(err))
			result.Errors = append(result.Errors,
				fmt.Sprintf("record %s: auto-merge failed (%s): %v", rec.Key(), category, err))
			flagged := e.flag(rec, cand)
			flagged.Reason = fmt.Sprintf("%s (auto-merge failed: %s)", cand.Reason, category)
			result.PossibleDuplicates = append(result.PossibleDuplicates, flagged)

		case cand.Score >= e.policy.FlagThreshold:
			result.PossibleDuplicates = append(result.PossibleDuplicates, e.flag(rec, cand))

		default:
			// Candidates are sorted descending, nothing below can qualify.
			return nil
		}
	}
	return nil
}

func (e *Engine) flag(rec records.Record, cand Candidate) FlaggedDuplicate {
	return FlaggedDuplicate{
		NewKey:        rec.Key(),
		NewTitle:      rec.Field(records.FieldTitle),
		ExistingKey:   cand.Record.Key(),
		ExistingTitle: cand.Record.Field(records.FieldTitle),
		Score:         cand.Score,
		Reason:        cand.Reason,
		Confidence:    cand.Confidence,
	}
}

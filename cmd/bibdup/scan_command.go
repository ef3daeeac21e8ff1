package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bibdup/internal/dedup"
	"bibdup/internal/records"
	"bibdup/internal/services"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "scan [key...]",
		Short: "Evaluate records for duplicates and merge or flag them",
		Long: `Scan evaluates newly added records against the rest of the library.
High-confidence matches delete the new record and keep the existing one;
mid-confidence matches are flagged for review. Records are selected either
by key or, with --since, by insertion time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && since <= 0 {
				return errors.New("provide record keys or --since")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			return ctx.withLibraryLock(func() error {
				runCtx := services.WithBatchID(cmd.Context(), uuid.NewString())

				keys := args
				if len(keys) == 0 {
					keys, err = store.KeysAddedSince(runCtx, time.Now().Add(-since))
					if err != nil {
						return fmt.Errorf("list recent records: %w", err)
					}
				}

				batch := make([]records.Record, 0, len(keys))
				for _, key := range keys {
					rec, err := store.Get(runCtx, key)
					if err != nil {
						if errors.Is(err, services.ErrNotFound) {
							return fmt.Errorf("record %s not found", key)
						}
						return fmt.Errorf("load record %s: %w", key, err)
					}
					batch = append(batch, rec)
				}

				engine := dedup.New(store, logger, dedup.PolicyFromConfig(cfg))
				result := engine.Process(runCtx, batch)

				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				printScanResult(cmd, result, len(batch))
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "Evaluate records added within this duration (for example 24h)")
	return cmd
}

func printScanResult(cmd *cobra.Command, result dedup.ProcessingResult, total int) {
	out := cmd.OutOrStdout()

	if len(result.AutoMerged) > 0 {
		rows := make([][]string, 0, len(result.AutoMerged))
		for _, action := range result.AutoMerged {
			rows = append(rows, []string{
				action.KeptKey,
				action.DeletedKey,
				strconv.Itoa(action.Score),
				action.Reason,
			})
		}
		fmt.Fprintln(out, "Auto-merged:")
		fmt.Fprintln(out, renderTable(
			[]string{"Kept", "Deleted", "Score", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}

	if len(result.PossibleDuplicates) > 0 {
		rows := make([][]string, 0, len(result.PossibleDuplicates))
		for _, flagged := range result.PossibleDuplicates {
			rows = append(rows, []string{
				flagged.NewKey,
				flagged.ExistingKey,
				strconv.Itoa(flagged.Score),
				flagged.Confidence,
				flagged.Reason,
			})
		}
		fmt.Fprintln(out, "Flagged for review:")
		fmt.Fprintln(out, renderTable(
			[]string{"New", "Existing", "Score", "Confidence", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	for _, msg := range result.Errors {
		fmt.Fprintf(out, "error: %s\n", msg)
	}

	fmt.Fprintf(out, "Scanned %d record(s): %d merged, %d flagged, %d error(s)\n",
		total, len(result.AutoMerged), len(result.PossibleDuplicates), len(result.Errors))
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"bibdup/internal/dedup"
)

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a record directly, bypassing duplicate resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
				budget := time.Duration(cfg.Merge.AdminDeleteTimeoutSeconds) * time.Second
				executor := dedup.NewExecutor(store, logger, budget)
				if err := executor.DeleteByKey(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete record %s: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted record %s\n", args[0])
				return nil
			})
		},
	}
}

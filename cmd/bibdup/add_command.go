package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bibdup/internal/dedup"
	"bibdup/internal/records"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var (
		itemType   string
		doi        string
		isbn       string
		issn       string
		urlValue   string
		extra      string
		date       string
		collection string
		authors    []string
		noDedup    bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Insert a record and resolve duplicates immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			if title == "" {
				return errors.New("title must not be empty")
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
				runCtx := cmd.Context()

				if err := store.EnsureCollection(runCtx, collection, collection, true); err != nil {
					return fmt.Errorf("ensure collection: %w", err)
				}
				rec, err := store.Insert(runCtx, records.NewRecord{
					ItemType:      itemType,
					Title:         title,
					DOI:           doi,
					ISBN:          isbn,
					ISSN:          issn,
					URL:           urlValue,
					Extra:         extra,
					Date:          date,
					CollectionKey: collection,
					Creators:      parseAuthors(authors),
				})
				if err != nil {
					return fmt.Errorf("insert record: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added record %s\n", rec.Key())

				if noDedup {
					return nil
				}

				engine := dedup.New(store, logger, dedup.PolicyFromConfig(cfg))
				result := engine.Process(runCtx, []records.Record{rec})
				if ctx.jsonOutput() {
					return writeJSON(cmd, result)
				}
				printScanResult(cmd, result, 1)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&itemType, "type", "journalArticle", "Item type for the new record")
	cmd.Flags().StringVar(&doi, "doi", "", "DOI")
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&issn, "issn", "", "ISSN")
	cmd.Flags().StringVar(&urlValue, "url", "", "URL")
	cmd.Flags().StringVar(&extra, "extra", "", "Free-text annotation (PMID, PMCID, arXiv IDs are recognized)")
	cmd.Flags().StringVar(&date, "date", "", "Publication date")
	cmd.Flags().StringVar(&collection, "collection", "default", "Collection key")
	cmd.Flags().StringArrayVar(&authors, "author", nil, `Author as "Last, First" (repeatable)`)
	cmd.Flags().BoolVar(&noDedup, "no-dedup", false, "Insert without duplicate resolution")

	return cmd
}

// parseAuthors converts "Last, First" values into creators; values without a
// comma are treated as single-field names.
func parseAuthors(values []string) []records.Creator {
	creators := make([]records.Creator, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		last, first, found := strings.Cut(value, ",")
		if found {
			creators = append(creators, records.Creator{
				FirstName: strings.TrimSpace(first),
				LastName:  strings.TrimSpace(last),
			})
			continue
		}
		creators = append(creators, records.Creator{FullName: value})
	}
	return creators
}

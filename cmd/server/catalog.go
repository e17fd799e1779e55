package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neexbeast/boardinghub/internal/apperr"
	"github.com/neexbeast/boardinghub/internal/catalog"
	"github.com/neexbeast/boardinghub/internal/config"
	"github.com/neexbeast/boardinghub/internal/storage"
)

func newCatalogCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and import the listings catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the configured catalog and print listings per price tier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadCatalogConfig(*cfgFile)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if cfg.Catalog.Source == config.SourcePostgres {
				pool, err := connectDatabase(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer pool.Close()
				return printCatalog(cmd, storage.NewListingRepository(pool))
			}

			src, err := catalogSource(ctx, cfg, nil)
			if err != nil {
				return err
			}
			return printCatalog(cmd, src)
		},
	})

	var file string
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert a CSV catalog into the listings table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database.url is required for import")
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var src catalog.Source = catalog.FileSource{Path: file}
			if file == "" {
				if cfg.Catalog.Source == config.SourcePostgres {
					return errors.New("--file is required when catalog.source is postgres")
				}
				if src, err = catalogSource(ctx, cfg, nil); err != nil {
					return err
				}
			}

			// Validate every record before touching the database.
			records, err := src.Records(ctx)
			if err != nil {
				return err
			}
			if _, err := catalog.NewSnapshot(records); err != nil {
				return apperr.Catalog(fmt.Errorf("validating import: %w", err))
			}

			pool, err := connectDatabase(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := storage.NewListingRepository(pool).ImportListings(ctx, records); err != nil {
				return err
			}
			log.Info("catalog imported", "listings", len(records))
			return nil
		},
	}
	importCmd.Flags().StringVar(&file, "file", "", "CSV file to import (defaults to the configured catalog source)")
	cmd.AddCommand(importCmd)

	return cmd
}

func loadCatalogConfig(cfgFile string) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateCatalog(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printCatalog(cmd *cobra.Command, src catalog.Source) error {
	snap, err := catalog.Load(cmd.Context(), src)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	counts := snap.CountByTier()
	fmt.Fprintf(out, "listings: %d\n", snap.Len())
	for _, tier := range []catalog.PriceTier{catalog.TierCheap, catalog.TierAffordable, catalog.TierExpensive} {
		fmt.Fprintf(out, "  %-10s %d\n", tier, counts[tier])
	}
	return nil
}

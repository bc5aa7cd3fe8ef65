package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leca/loqed-births/internal/config"
	"github.com/leca/loqed-births/internal/migrate"
)

func newMigrateImagesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-images",
		Short: "Re-normalize every stored person image",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := migrate.New(a.db, a.images, slog.Default()).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processed=%d skipped=%d failed=%d\n", res.Processed, res.Skipped, res.Failed)
			if res.Failed > 0 {
				return fmt.Errorf("%d images could not be migrated", res.Failed)
			}
			return nil
		},
	}
}

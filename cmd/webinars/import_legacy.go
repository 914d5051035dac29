package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"webinar_archive/internal/service"
	"webinar_archive/internal/storage/file"
)

func newImportLegacyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import-legacy <file>",
		Short: "Import watched and favorite flags from a combined catalog file",
		Long: "Read a catalog file in the older combined layout, where flags were stored inline on each " +
			"webinar, and merge those flags into the user state store. Flags already set are kept.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := ctx.cfg, ctx.logger

			flags, err := file.ReadLegacyFlags(args[0])
			if err != nil {
				return err
			}

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			stats, err := service.NewCatalogService(st.catalog, st.state, logger).ImportLegacy(cmd.Context(), flags)
			if err != nil {
				return fmt.Errorf("import legacy flags: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d, skipped %d, unresolved %d\n",
				stats.Imported, stats.Skipped, stats.Unresolved)
			return nil
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/namansh70747/greenops-planner/pkg/logger"
)

// importCmd bulk-loads exported events into the event log
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Bulk-load a JSON array of deployment events into the event log",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("import needs the database event log (set database.enabled or GREENOPS_DB_ENABLED)")
	}

	events, err := readEvents(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg, logger.L())
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(cmd.Context(), events)
	if err != nil {
		return err
	}
	logger.Info("Imported deployment events", zap.Int64("count", n), zap.String("file", args[0]))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d events\n", n)
	return nil
}

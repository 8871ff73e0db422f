package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/namansh70747/greenops-planner/pkg/logger"
)

// migrateCmd creates the Postgres schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the deployment event schema in Postgres",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Database.Enabled {
			return fmt.Errorf("database is disabled (set database.enabled or GREENOPS_DB_ENABLED)")
		}
		// openStore migrates on connect.
		store, err := openStore(cmd.Context(), cfg, logger.L())
		if err != nil {
			return err
		}
		store.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

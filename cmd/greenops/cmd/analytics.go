package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/namansh70747/greenops-planner/internal/storage"
	"github.com/namansh70747/greenops-planner/pkg/logger"
)

var analyticsFile string

// analyticsCmd aggregates recorded deployments
var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print the analytics snapshot of recorded deployments",
	Long: `Aggregate deployment events into totals, per-plan and per-region groups.

Events come from the configured event log, or from a JSON array exported
earlier when --file is given.`,
	RunE: runAnalytics,
}

func init() {
	analyticsCmd.Flags().StringVarP(&analyticsFile, "file", "f", "", "JSON array of deployment events (- for stdin)")
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	log := logger.L()
	comp, err := buildPlanner(cfg, log)
	if err != nil {
		return err
	}

	var events []*storage.DeploymentEvent
	if analyticsFile != "" {
		events, err = readEvents(analyticsFile, cmd.InOrStdin())
	} else {
		events, err = listStored(cmd)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), comp.aggregator.Aggregate(events))
}

func listStored(cmd *cobra.Command) ([]*storage.DeploymentEvent, error) {
	store, err := openStore(cmd.Context(), cfg, logger.L())
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(cmd.Context())
}

func readEvents(path string, stdin io.Reader) ([]*storage.DeploymentEvent, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	var events []*storage.DeploymentEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return events, nil
}

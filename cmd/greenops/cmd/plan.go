package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/namansh70747/greenops-planner/internal/planner"
	"github.com/namansh70747/greenops-planner/pkg/logger"
)

var (
	planRequestFile string
	planComponents  []string
	planUserRegion  string
	planTolerance   string
	planPreference  string
	planRankings    bool
)

// planCmd runs the planner once and prints the result
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Produce deployment plans without starting the server",
	Long: `Run the planner once and print the response as JSON.

The request is read from --file (use - for stdin) or assembled from flags.
Components are given as name or name:type.

Examples:
  greenops plan --component api:web --component worker:job --preference budget
  greenops plan --file request.json --rankings`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planRequestFile, "file", "f", "", "JSON plan request (- for stdin)")
	planCmd.Flags().StringArrayVarP(&planComponents, "component", "c", nil, "component as name[:type], repeatable")
	planCmd.Flags().StringVarP(&planUserRegion, "user-region", "u", "global", "where most users are")
	planCmd.Flags().StringVarP(&planTolerance, "tolerance", "t", "balanced", "latency tolerance (strict, balanced, relaxed)")
	planCmd.Flags().StringVarP(&planPreference, "preference", "p", "balanced", "optimization preference (balanced, max-green, budget)")
	planCmd.Flags().BoolVar(&planRankings, "rankings", false, "print every region ranked under the preference instead of plans")
}

func runPlan(cmd *cobra.Command, args []string) error {
	req, err := planRequest(cmd.InOrStdin())
	if err != nil {
		return err
	}

	comp, err := buildPlanner(cfg, logger.L())
	if err != nil {
		return err
	}

	var out any
	if planRankings {
		out, err = comp.planner.Rank(cmd.Context(), req)
	} else {
		out, err = comp.planner.Plan(cmd.Context(), req)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func planRequest(stdin io.Reader) (planner.Request, error) {
	var req planner.Request
	if planRequestFile != "" {
		data, err := readInput(planRequestFile, stdin)
		if err != nil {
			return req, err
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse plan request: %w", err)
		}
		return req, nil
	}

	for _, c := range planComponents {
		name, typ, _ := strings.Cut(c, ":")
		req.Components = append(req.Components, planner.Component{Name: name, Type: typ})
	}
	req.UserRegion = planUserRegion
	req.LatencyTolerance = planTolerance
	req.OptimizationPreference = planPreference
	return req, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

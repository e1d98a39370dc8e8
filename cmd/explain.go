package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainroute/config"
	"chainroute/pkg/intent"
	"chainroute/pkg/router"
	"chainroute/pkg/scoring"
)

var (
	explainMaxCost    string
	explainMaxLatency int64
)

var explainCmd = &cobra.Command{
	Use:   "explain <route.json>",
	Short: "Break a route's score down per criterion",
	Long: `Score a route and show the per-criterion breakdown: the normalized
value, the weight, and the contribution of privacy, cost, latency and
trust. Contributions sum to the total score.

The route is read as JSON from the given file, or from stdin when the
argument is "-". The "route" command emits this format with --json.`,
	Args: cobra.ExactArgs(1),
	Run:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringVar(&explainMaxCost, "max-cost", "", "Cost normalization ceiling override")
	explainCmd.Flags().Int64Var(&explainMaxLatency, "max-latency", 0, "Latency normalization ceiling override, in seconds")
}

func runExplain(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	data, err := readRouteInput(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	var rt router.Route
	if err := json.Unmarshal(data, &rt); err != nil {
		// The route command emits a ranked list; accept that shape too and
		// explain its first entry.
		var routes []router.Route
		if listErr := json.Unmarshal(data, &routes); listErr != nil || len(routes) == 0 {
			printError(fmt.Errorf("failed to decode route: %w", err))
			os.Exit(1)
		}
		rt = routes[0]
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	scorer := scoring.NewScorer(
		cfg.Scoring.MaxCostCeiling,
		cfg.Scoring.MaxLatencySeconds,
		intent.Weights{
			Privacy: cfg.Scoring.WeightPrivacy,
			Cost:    cfg.Scoring.WeightCost,
			Latency: cfg.Scoring.WeightLatency,
			Trust:   cfg.Scoring.WeightTrust,
		},
	)
	scorer = scorer.ForPreferences(intent.Preferences{
		MaxCost:           explainMaxCost,
		MaxLatencySeconds: explainMaxLatency,
	})

	explanation := scorer.Explain(rt)

	if jsonOutput {
		printJSON(explanation)
		return
	}

	bold := color.New(color.Bold)
	bold.Printf("\nRoute %s (%s)\n\n", shortID(explanation.RouteID), rt.RouterID)
	bold.Printf("%-10s %-12s %-8s %s\n", "CRITERION", "NORMALIZED", "WEIGHT", "CONTRIBUTION")
	for _, c := range explanation.Criteria {
		fmt.Printf("%-10s %-12.4f %-8.2f %.4f\n", c.Name, c.Normalized, c.Weight, c.Contribution)
	}
	bold.Printf("\nTotal: %.4f\n\n", explanation.Total)
}

func readRouteInput(arg string) ([]byte, error) {
	if arg == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(arg)
}

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainroute/config"
	"chainroute/pkg/execution"
	"chainroute/pkg/intent"
	"chainroute/pkg/router"
)

var (
	fromChain       string
	toChain         string
	recipientAddr   string
	topN            int
	strategyFlag    string
	minPrivacy      string
	maxCost         string
	maxLatency      int64
	allowCrossChain bool
	noConfirm       bool
	doExecute       bool
	ackCustodial    bool
)

var routeCmd = &cobra.Command{
	Use:   "route <command>",
	Short: "Discover and rank routes for an intent",
	Long: `Discover executable routes for a declared intent, ranked under the
privacy-weighted scoring policy.

The intent is given as a natural-language command:
  send <amount> <token> to <address>
  swap <amount> <token> to <token>

Examples:
  # Shielded same-chain send
  chainroute route "send 100 ZEC to zs1..."

  # Cross-chain swap routed through registered bridges
  chainroute route "swap 1 SOL to USDC" --to-chain near --recipient your.near --allow-cross-chain

  # Rank with the privacy-first comparator and execute the best route
  chainroute route "send 0.5 ZEC to zs1..." --strategy privacy-first --execute --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runRoute,
}

func init() {
	rootCmd.AddCommand(routeCmd)

	routeCmd.Flags().StringVar(&fromChain, "from-chain", "", "Source blockchain (optional)")
	routeCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination blockchain (optional)")
	routeCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address (required for swaps)")
	routeCmd.Flags().IntVar(&topN, "top", 0, "Number of ranked routes to show (default from config)")
	routeCmd.Flags().StringVar(&strategyFlag, "strategy", "", "Comparator strategy: weighted or privacy-first")
	routeCmd.Flags().StringVar(&minPrivacy, "min-privacy", "", "Minimum route privacy: LOW, MEDIUM or HIGH")
	routeCmd.Flags().StringVar(&maxCost, "max-cost", "", "Maximum route cost in smallest units")
	routeCmd.Flags().Int64Var(&maxLatency, "max-latency", 0, "Maximum route latency in seconds")
	routeCmd.Flags().BoolVar(&allowCrossChain, "allow-cross-chain", false, "Permit cross-chain routing")
	routeCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	routeCmd.Flags().BoolVar(&doExecute, "execute", false, "Execute the best route after confirmation")
	routeCmd.Flags().BoolVar(&ackCustodial, "ack-custodial", false, "Acknowledge custody transfer for custodial steps")
}

func runRoute(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	// Parse the command into a request
	req, err := intent.ParseCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	it, err := req.Normalize(intent.RequestOptions{
		SourceChain: fromChain,
		TargetChain: toChain,
		Destination: recipientAddr,
	})
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if topN > 0 {
		cfg.Routing.TopN = topN
	}

	eng, err := buildEngine(cfg, strategyFlag)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	prefs := routePreferences(cfg)

	if verbose {
		fmt.Printf("\nIntent %s: %s %s %s -> %s\n",
			it.ID, it.Type, it.Amount.Display(), it.SourceAsset.Token, it.Destination.Value)
	}

	// Discover with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Discovering routes..."
		s.Start()
	}

	ctx := context.Background()
	routes, err := eng.pipeline.Plan(ctx, it, prefs)

	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if len(routes) == 0 {
		// Not an error: routing produced no options.
		printWarning("No routes found for this intent.")
		os.Exit(0)
	}

	if jsonOutput && !doExecute {
		printJSON(routes)
		return
	}
	if !jsonOutput {
		printRouteTable(eng, routes)
	}

	if !doExecute {
		return
	}

	best := routes[0]
	if !noConfirm && !confirmPrompt(fmt.Sprintf("Execute route %s (%s, %d steps)?",
		shortID(best.ID), best.PrivacyScore, len(best.Steps))) {
		printWarning("Aborted.")
		return
	}

	// Revalidate the selected route immediately before execution
	confirmed, err := eng.pipeline.Confirm(ctx, it, best, prefs)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	mapper := execution.NewMapper(eng.providers, execution.WithLogger(eng.log))
	outcome, err := mapper.ExecuteRoute(ctx, it, confirmed, noopWallet{}, ackCustodial)
	if jsonOutput {
		printJSON(outcome)
	}
	if err != nil {
		if !jsonOutput {
			printStepOutcomes(outcome)
		}
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		printStepOutcomes(outcome)
		printSuccess(fmt.Sprintf("Route executed. Intent %s is %s.", shortID(it.ID), it.Status))
	}
}

// routePreferences builds the routing preferences from the route flags.
// Cross-chain routing is permitted when either the flag or the
// routing.allow_cross_chain config knob enables it.
func routePreferences(cfg *config.Config) intent.Preferences {
	return intent.Preferences{
		PrivacyLevel:      intent.Level(strings.ToUpper(minPrivacy)),
		MaxCost:           maxCost,
		MaxLatencySeconds: maxLatency,
		AllowCrossChain:   allowCrossChain || cfg.Routing.AllowCrossChain,
	}
}

// noopWallet satisfies the wallet boundary for dry-run execution. A real
// integration hands the mapper the wallet core's signer instead.
type noopWallet struct{}

func (noopWallet) SignTransaction(ctx context.Context, tx execution.UnsignedTransaction) (execution.SignedTransaction, error) {
	return execution.SignedTransaction{Chain: tx.Chain, Raw: tx.Payload, Hash: "unsigned-dry-run"}, nil
}

func printRouteTable(eng *engine, routes []router.Route) {
	bold := color.New(color.Bold)
	bold.Printf("\n%-10s %-14s %-8s %-8s %-12s %-10s %s\n",
		"ROUTE", "ROUTER", "PRIVACY", "TRUST", "COST", "LATENCY", "SCORE")

	for _, rt := range routes {
		score := eng.scorer.Score(rt)
		fmt.Printf("%-10s %-14s %-8s %-8s %-12s %-10s %.4f\n",
			shortID(rt.ID), rt.RouterID, rt.PrivacyScore, rt.TrustScore,
			rt.EstimatedCost, fmt.Sprintf("%ds", rt.EstimatedLatencySeconds), score)
		for _, step := range rt.Steps {
			fmt.Printf("  %d. %s via %s (%s -> %s, %s)\n",
				step.Sequence+1, step.Type, step.Provider,
				step.InputAsset.Chain, step.OutputAsset.Chain, step.TrustModel)
		}
	}
	fmt.Println()
}

func printStepOutcomes(outcome *execution.RouteOutcome) {
	if outcome == nil {
		return
	}
	for _, step := range outcome.Completed {
		color.Green("  ✓ step %d via %s (%s)", step.Sequence+1, step.Provider, step.Status)
	}
	if outcome.Failed != nil {
		color.Red("  ✗ step %d via %s: %s", outcome.Failed.Sequence+1, outcome.Failed.Provider, outcome.Failed.Reason)
	}
}

func confirmPrompt(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	fmt.Println(string(data))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

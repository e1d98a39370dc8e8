package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chainroute",
	Short: "An intent routing and scoring engine for cross-chain asset movement",
	Long: `chainroute turns a declared intent ("send X to Y", "swap A for B") into a
ranked set of executable routes, selected under a privacy-weighted,
multi-criteria policy. Route discovery fans out across registered routers;
the winning route is handed to an execution provider. Wallet secrets never
reach the routing layer.

Examples:
  chainroute route "send 100 ZEC to zs1..."
  chainroute route "swap 1 SOL to USDC" --to-chain near --recipient your.near --allow-cross-chain
  chainroute providers
  chainroute status <execution-id>`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	color.Red("\nError: %v\n", err)
}

func printSuccess(message string) {
	color.Green("\n%s\n", message)
}

func printWarning(message string) {
	color.Yellow("\n%s\n", message)
}

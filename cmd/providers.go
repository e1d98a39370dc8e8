package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainroute/config"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List registered routers and execution providers",
	Long: `List the routers registered for route discovery, the chains each one
supports, and the execution providers available for route execution.`,
	Run: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	eng, err := buildEngine(cfg, "")
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		type routerInfo struct {
			ID     string   `json:"id"`
			Chains []string `json:"chains"`
		}
		out := struct {
			Routers   []routerInfo `json:"routers"`
			Providers []string     `json:"providers"`
		}{}
		for _, r := range eng.registry.Routers() {
			out.Routers = append(out.Routers, routerInfo{ID: r.ID(), Chains: r.SupportedChains()})
		}
		for _, p := range eng.providers {
			out.Providers = append(out.Providers, p.Name())
		}
		printJSON(out)
		return
	}

	bold := color.New(color.Bold)

	bold.Println("\nRouters:")
	for _, r := range eng.registry.Routers() {
		fmt.Printf("  %-22s %s\n", r.ID(), strings.Join(r.SupportedChains(), ", "))
	}

	bold.Println("\nExecution providers:")
	for _, p := range eng.providers {
		fmt.Printf("  %s\n", p.Name())
	}
	fmt.Println()
}

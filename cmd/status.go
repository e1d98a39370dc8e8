package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"chainroute/config"
	"chainroute/pkg/execution"
)

var statusProvider string

var statusCmd = &cobra.Command{
	Use:   "status <execution-id>",
	Short: "Check the status of a route step execution",
	Long: `Check the status of a previously started execution by its execution ID.
For 1Click executions the ID is the deposit address returned at execution
time.`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVar(&statusProvider, "provider", "", "Provider to query (default: first configured)")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	executionID := args[0]

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

	provider, err := pickProvider(eng.providers, statusProvider)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	status, err := provider.GetStatus(context.Background(), executionID)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(struct {
			ExecutionID string           `json:"execution_id"`
			Provider    string           `json:"provider"`
			Status      execution.Status `json:"status"`
		}{ExecutionID: executionID, Provider: provider.Name(), Status: status})
		return
	}

	fmt.Printf("\nExecution: %s\n", executionID)
	fmt.Printf("Provider:  %s\n", provider.Name())
	switch status {
	case execution.StatusCompleted:
		color.Green("Status:    %s\n", status)
	case execution.StatusFailed:
		color.Red("Status:    %s\n", status)
	default:
		color.Yellow("Status:    %s\n", status)
	}
}

func pickProvider(providers []execution.Provider, name string) (execution.Provider, error) {
	if len(providers) == 0 {
		return nil, execution.ErrNoProvider
	}
	if name == "" {
		return providers[0], nil
	}
	for _, p := range providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

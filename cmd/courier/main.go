package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerida-ai/courier/cmd/courier/commands"
	"github.com/nerida-ai/courier/logger"
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "courier - Prompt correlation and dispatch engine",
	Long: `courier turns conversational-platform events into durable prompts.

It deduplicates at-least-once event deliveries, correlates prompts with AI
agents and conversation threads, records human feedback, and hands created
prompts to the async answer pipeline.

Available commands:
  db          - Manage the courier database
  agents      - Manage agent channel bindings
  workspaces  - Manage workspace identity links
  jobs        - Inspect the async job queue

Examples:
  courier db migrate                                  # Apply schema migrations
  courier workspaces link --team T1 --user u --org o  # Link a workspace
  courier agents ls                                   # List configured agents
  courier jobs ls --status queued                     # List queued jobs`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.AgentsCmd)
	rootCmd.AddCommand(commands.WorkspacesCmd)
	rootCmd.AddCommand(commands.JobsCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

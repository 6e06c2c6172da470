package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerida-ai/courier/directory"
	"github.com/nerida-ai/courier/errors"
)

// AgentsCmd manages agent-to-channel bindings
var AgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Manage agent channel bindings",
	Long: `Manage which AI agent answers prompts in which channel.

Examples:
  courier agents add --agent A1 --org org-1 --project proj-1 --channel C1 --name "Sales Copilot"
  courier agents ls`,
}

var agentsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Bind an agent to a channel",
	RunE:  runAgentsAdd,
}

var agentsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured agents",
	RunE:  runAgentsLs,
}

var (
	agentIDFlag   string
	agentOrgFlag  string
	agentProjFlag string
	agentChanFlag string
	agentNameFlag string
)

func init() {
	agentsAddCmd.Flags().StringVar(&agentIDFlag, "agent", "", "Agent identifier (required)")
	agentsAddCmd.Flags().StringVar(&agentOrgFlag, "org", "", "Organization identifier (required)")
	agentsAddCmd.Flags().StringVar(&agentProjFlag, "project", "", "Project identifier (required)")
	agentsAddCmd.Flags().StringVar(&agentChanFlag, "channel", "", "Channel identifier (required)")
	agentsAddCmd.Flags().StringVar(&agentNameFlag, "name", "", "Display name")
	agentsAddCmd.MarkFlagRequired("agent")
	agentsAddCmd.MarkFlagRequired("org")
	agentsAddCmd.MarkFlagRequired("project")
	agentsAddCmd.MarkFlagRequired("channel")

	AgentsCmd.AddCommand(agentsAddCmd)
	AgentsCmd.AddCommand(agentsLsCmd)
}

func runAgentsAdd(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	dir := directory.NewSQLDirectory(database)
	if err := dir.Bind(cmd.Context(), agentIDFlag, agentOrgFlag, agentProjFlag, agentChanFlag, agentNameFlag); err != nil {
		return errors.Wrap(err, "failed to bind agent")
	}

	fmt.Printf("Bound agent %s to channel %s (org %s)\n", agentIDFlag, agentChanFlag, agentOrgFlag)
	return nil
}

func runAgentsLs(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	dir := directory.NewSQLDirectory(database)
	agents, err := dir.List(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to list agents")
	}

	if len(agents) == 0 {
		fmt.Println("No agents configured")
		return nil
	}

	fmt.Printf("%-12s %-12s %-12s %-14s %s\n", "AGENT", "ORG", "PROJECT", "CHANNEL", "NAME")
	for _, a := range agents {
		fmt.Printf("%-12s %-12s %-12s %-14s %s\n", a.AgentID, a.OrganizationID, a.ProjectID, a.ChannelID, a.Name)
	}
	return nil
}

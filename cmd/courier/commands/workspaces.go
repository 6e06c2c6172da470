package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerida-ai/courier/errors"
	"github.com/nerida-ai/courier/identity"
)

// WorkspacesCmd manages external workspace links
var WorkspacesCmd = &cobra.Command{
	Use:   "workspaces",
	Short: "Manage workspace identity links",
	Long: `Manage the mapping from external workspaces to internal identity.

Examples:
  courier workspaces link --team T1 --user user-1 --org org-1
  courier workspaces ls`,
}

var workspacesLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link an external team to an internal user and organization",
	RunE:  runWorkspacesLink,
}

var workspacesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List workspace links",
	RunE:  runWorkspacesLs,
}

var (
	linkTeamFlag string
	linkUserFlag string
	linkOrgFlag  string
)

func init() {
	workspacesLinkCmd.Flags().StringVar(&linkTeamFlag, "team", "", "External team identifier (required)")
	workspacesLinkCmd.Flags().StringVar(&linkUserFlag, "user", "", "Internal user identifier (required)")
	workspacesLinkCmd.Flags().StringVar(&linkOrgFlag, "org", "", "Internal organization identifier (required)")
	workspacesLinkCmd.MarkFlagRequired("team")
	workspacesLinkCmd.MarkFlagRequired("user")
	workspacesLinkCmd.MarkFlagRequired("org")

	WorkspacesCmd.AddCommand(workspacesLinkCmd)
	WorkspacesCmd.AddCommand(workspacesLsCmd)
}

func runWorkspacesLink(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	resolver := identity.NewSQLResolver(database)
	if err := resolver.Link(cmd.Context(), linkTeamFlag, linkUserFlag, linkOrgFlag); err != nil {
		return errors.Wrap(err, "failed to link workspace")
	}

	fmt.Printf("Linked team %s to user %s (org %s)\n", linkTeamFlag, linkUserFlag, linkOrgFlag)
	return nil
}

func runWorkspacesLs(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	resolver := identity.NewSQLResolver(database)
	links, err := resolver.Links(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to list workspace links")
	}

	if len(links) == 0 {
		fmt.Println("No workspaces linked")
		return nil
	}

	fmt.Printf("%-14s %-14s %s\n", "TEAM", "USER", "ORG")
	for _, l := range links {
		fmt.Printf("%-14s %-14s %s\n", l.TeamID, l.UserID, l.OrganizationID)
	}
	return nil
}

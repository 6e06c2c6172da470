package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerida-ai/courier/config"
	"github.com/nerida-ai/courier/errors"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the courier database",
	Long: `Manage courier database operations.

Examples:
  courier db migrate    # Apply pending schema migrations
  courier db stats      # Show prompt and job statistics`,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE:  runDbMigrate,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  "Display counts of prompts, workspace links, agent bindings, and async jobs",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbMigrateCmd)
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbMigrate(cmd *cobra.Command, args []string) error {
	// openDatabase migrates as part of opening
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Println("Database schema is up to date")
	return nil
}

func runDbStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	var prompts, threads, followUps, links, agents, jobs int
	row := database.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(DISTINCT channel_id || '/' || thread_key),
			COUNT(created_from)
		FROM prompts
	`)
	if err := row.Scan(&prompts, &threads, &followUps); err != nil {
		return errors.Wrap(err, "failed to query prompt stats")
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM workspace_links`).Scan(&links); err != nil {
		return errors.Wrap(err, "failed to query workspace links")
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM agents`).Scan(&agents); err != nil {
		return errors.Wrap(err, "failed to query agents")
	}
	if err := database.QueryRow(`SELECT COUNT(*) FROM prompt_jobs`).Scan(&jobs); err != nil {
		return errors.Wrap(err, "failed to query jobs")
	}

	fmt.Println("Database Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Database Path:    %s\n", cfg.Database.Path)
	fmt.Printf("Prompts:          %d\n", prompts)
	fmt.Printf("Threads:          %d\n", threads)
	fmt.Printf("Follow-ups:       %d\n", followUps)
	fmt.Printf("Workspace Links:  %d\n", links)
	fmt.Printf("Agent Bindings:   %d\n", agents)
	fmt.Printf("Async Jobs:       %d\n", jobs)
	return nil
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerida-ai/courier/errors"
	"github.com/nerida-ai/courier/pulse/async"
)

// JobsCmd inspects the async job queue
var JobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the async job queue",
	Long: `Inspect prompt answer jobs.

Examples:
  courier jobs ls                     # List recent jobs
  courier jobs ls --status queued     # List queued jobs only`,
}

var jobsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List async jobs",
	RunE:  runJobsLs,
}

var (
	jobsStatusFlag string
	jobsLimitFlag  int
)

func init() {
	jobsLsCmd.Flags().StringVar(&jobsStatusFlag, "status", "", "Filter by status (queued, running, completed, failed, cancelled)")
	jobsLsCmd.Flags().IntVar(&jobsLimitFlag, "limit", 20, "Maximum number of jobs to show")

	JobsCmd.AddCommand(jobsLsCmd)
}

func runJobsLs(cmd *cobra.Command, args []string) error {
	database, err := openDatabase("")
	if err != nil {
		return err
	}
	defer database.Close()

	var status *async.JobStatus
	if jobsStatusFlag != "" {
		if !async.IsValidStatus(jobsStatusFlag) {
			return errors.Newf("invalid status: %s", jobsStatusFlag)
		}
		s := async.JobStatus(jobsStatusFlag)
		status = &s
	}

	queue := async.NewQueue(database)
	jobs, err := queue.ListJobs(status, jobsLimitFlag)
	if err != nil {
		return errors.Wrap(err, "failed to list jobs")
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-40s %-16s %-10s %-20s %s\n", "ID", "HANDLER", "STATUS", "CREATED", "SOURCE")
	for _, job := range jobs {
		fmt.Printf("%-40s %-16s %-10s %-20s %s\n",
			job.ID,
			job.HandlerName,
			job.Status,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
			job.Source)
	}
	return nil
}

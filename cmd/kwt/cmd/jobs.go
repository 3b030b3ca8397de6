package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func jobsCmd() *cobra.Command {
	jobsRoot := &cobra.Command{
		Use:   "jobs",
		Short: "View scheduler job history",
		Long: "View the execution history of scheduled jobs (batch, log_retention).\n" +
			"Each job records status, duration, and any errors.",
	}

	jobsRoot.AddCommand(
		jobsListCmd(),
		jobsHistoryCmd(),
	)

	return jobsRoot
}

func jobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List latest run per job",
		Example: `  kwt jobs list
  kwt jobs list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runs, err := newClient().ListJobs(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No job runs found.")
				return nil
			}
			return printJobRunsTable(out, runs)
		},
	}
}

func jobsHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <job_name>",
		Short: "Show run history for a job",
		Args:  cobra.ExactArgs(1),
		Example: `  kwt jobs history batch
  kwt jobs history log_retention --limit 50 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := newClient().GetJobHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintf(out, "No runs found for job %q.\n", args[0])
				return nil
			}
			return printJobRunsTable(out, runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")

	return cmd
}

package cmd

import (
	"github.com/spf13/cobra"
)

func batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Run a batch over all active tasks",
		Long: "Triggers a batch run on the server and waits for it to finish.\n" +
			"Each active task gets exactly one new metrics log entry.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := newClient().RunBatch(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), res)
			}
			return printBatchResult(cmd.OutOrStdout(), res)
		},
	}
}

func quotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show catalog API usage",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := newClient().GetQuota(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(cmd.OutOrStdout(), q)
			}
			return printQuota(cmd.OutOrStdout(), q)
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func estimateCmd() *cobra.Command {
	var retry bool

	cmd := &cobra.Command{
		Use:   "estimate <keyword> [keyword...]",
		Short: "Estimate keyword metrics",
		Long: "Estimate views, item count, difficulty, and volume for keywords.\n" +
			"A single keyword is scored on its own. Several keywords are scored\n" +
			"as a cohort and each gets a trend relative to the cohort mean.",
		Example: `  kwt estimate "vintage camera"
  kwt estimate "vintage camera" --retry
  kwt estimate "film camera" "instant camera" "vintage camera" --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				v, err := c.Estimate(cmd.Context(), args[0], retry)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(out, v)
				}
				return printKeywordDetail(out, v)
			}

			if retry {
				return fmt.Errorf("--retry applies to a single keyword")
			}
			views, err := c.EstimateCohort(cmd.Context(), args)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(out, views)
			}
			return printKeywordTable(out, views)
		},
	}
	cmd.Flags().BoolVar(&retry, "retry", false, "retry with backoff when the estimate fails")

	return cmd
}

func discoverCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "discover <seed>",
		Short: "Discover and score keywords related to a seed",
		Example: `  kwt discover camera
  kwt discover camera --limit 20 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			views, err := newClient().Discover(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput() {
				return outputJSON(out, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No keywords found.")
				return nil
			}
			return printKeywordTable(out, views)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of suggestions (1-50)")

	return cmd
}

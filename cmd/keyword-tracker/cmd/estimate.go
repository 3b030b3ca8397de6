package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/keyword-tracker/internal/api/handlers"
	"github.com/donaldgifford/keyword-tracker/internal/notify"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

func init() {
	var retry bool

	estimateCmd := &cobra.Command{
		Use:   "estimate [keyword...]",
		Short: "Estimate keywords against the catalog without a database",
		Long: "Runs the estimator directly against the configured catalog and prints JSON.\n" +
			"One keyword is scored on its own; several are scored as a cohort with trend.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			p := newPipeline(cfg, nil, notify.NewNoOpNotifier(log), log)
			ctx := cmd.Context()

			var out any
			if len(args) == 1 {
				estimate := p.engine.EstimateOne
				if retry {
					estimate = p.engine.EstimateWithRetry
				}
				m, err := estimate(ctx, args[0])
				if err != nil {
					return fmt.Errorf("estimating %q: %w", args[0], err)
				}
				out = handlers.NewKeywordView(domain.KeywordResult{
					Keyword: strings.TrimSpace(args[0]),
					Metrics: *m,
				})
			} else {
				results, err := p.engine.EstimateCohort(ctx, args)
				if err != nil {
					return fmt.Errorf("estimating cohort: %w", err)
				}
				views := make([]handlers.KeywordView, len(results))
				for i := range results {
					views[i] = handlers.NewKeywordView(results[i])
				}
				out = views
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	estimateCmd.Flags().BoolVar(&retry, "retry", false, "retry a failed single-keyword estimate with backoff")

	rootCmd.AddCommand(estimateCmd)
}

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run one batch over all active tasks and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		p := newPipeline(cfg, s, newNotifier(cfg, log), log)

		outcomes, err := p.engine.RunBatch(ctx)
		if err != nil {
			return fmt.Errorf("running batch: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

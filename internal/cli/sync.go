package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nsynca/nsynca/internal/config"
	"github.com/nsynca/nsynca/internal/notion"
	"github.com/nsynca/nsynca/internal/sync"
)

var (
	syncUpdaters []string
	syncParallel bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the updaters once",
	Long: `Runs the requested updaters in a fixed sequential order. Per-record
failures are logged and skipped; the command fails only on missing
configuration or an unsatisfiable request.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringSliceVar(&syncUpdaters, "updaters", []string{"all"},
		"updaters to run (deployment, task, service, charge, all)")
	syncCmd.Flags().BoolVar(&syncParallel, "parallel", false,
		"run updaters in parallel (not implemented; runs sequentially)")
}

func runSync(cmd *cobra.Command, args []string) error {
	kinds := make([]sync.Kind, 0, len(syncUpdaters))
	for _, name := range syncUpdaters {
		kind, err := sync.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, kind)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(kinds); err != nil {
		return err
	}

	store := notion.NewClient(cfg.NotionToken,
		notion.WithBaseURL(cfg.BaseURL),
		notion.WithLogger(logger),
	)
	orc := sync.NewOrchestrator(
		sync.Deps{Store: store, Log: logger},
		cfg.Databases(),
	)

	if err := orc.Run(cmd.Context(), kinds, syncParallel); err != nil {
		return fmt.Errorf("orchestration failed: %w", err)
	}
	return nil
}

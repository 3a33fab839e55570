package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/logging"
)

var (
	logLevel string
	logger   *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "nsynca",
	Short:        "Sync derived summary fields across a Notion workspace",
	Long:         `nsynca recomputes summary fields on workspace rows (project deployment and task summaries, service billing status) from their related records and writes them back through the Notion API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.NewLogger("nsynca", logLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
}

// Root returns the root command for execution and tests.
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warning, error, critical)")
}

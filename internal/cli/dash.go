package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nsynca/nsynca/internal/config"
	"github.com/nsynca/nsynca/internal/tui"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Open the interactive dashboard",
	Long: `Opens a terminal dashboard that runs updates in the background,
streams progress, and browses the run history.`,
	RunE: runDash,
}

func init() {
	rootCmd.AddCommand(dashCmd)
}

func runDash(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(nil); err != nil {
		return err
	}

	program := tea.NewProgram(tui.New(cfg, logger), tea.WithAltScreen())
	_, err = program.Run()
	return err
}

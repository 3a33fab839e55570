package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nsynca/nsynca/internal/config"
	"github.com/nsynca/nsynca/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent run records",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	records, err := history.Load(cfg.HistoryDir)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[:historyLimit]
	}

	for _, rec := range records {
		projects, services := history.SplitEntities(rec)
		fmt.Printf("%s  %-10s  %-7s  projects=%d services=%d charges=%d\n",
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Type, rec.Status,
			len(projects), len(services), len(rec.ChargesCreated))
		for _, name := range sortedNames(projects) {
			fmt.Printf("    %s: %v\n", name, projects[name])
		}
		for _, name := range sortedNames(services) {
			fmt.Printf("    %s: %v\n", name, services[name])
		}
		for _, name := range sortedNames(rec.ChargesCreated) {
			fmt.Printf("    %s: %v\n", name, rec.ChargesCreated[name])
		}
	}
	return nil
}

func sortedNames(m map[string]history.Updates) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

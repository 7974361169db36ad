package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/db"
	"github.com/chriserin/ftrun/internal/ui"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently recorded runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return RunHistory(cmd.OutOrStdout(), cfg.Database, historyLimit, cfg.Color)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func RunHistory(w io.Writer, dbPath string, limit int, color bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no history at %s: run `ftrun init` first", dbPath)
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	runs, err := db.RecentRuns(sqlDB, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded (use `ftrun run --record`)")
		return nil
	}

	p := ui.New(w, color)
	for _, r := range runs {
		p.HistoryRow(r.ID, r.StartedAt, r.Status, r.Scenarios, r.Failed, r.Duration)
	}
	return nil
}

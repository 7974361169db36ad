package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Parse feature files and expand outlines without running anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return RunCheck(cmd.OutOrStdout(), featurePaths(args, cfg), cfg.Color)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func RunCheck(w io.Writer, paths []string, color bool) error {
	files, err := discover(paths)
	if err != nil {
		return err
	}

	p := ui.New(w, color)
	failed := 0
	for _, path := range files {
		n, err := checkFile(path)
		if err != nil {
			p.CheckError(err)
			failed++
			continue
		}
		p.CheckOK(path, n)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d feature files have errors", failed, len(files))
	}
	return nil
}

// checkFile parses path and expands its outlines, returning the number of
// concrete scenarios.
func checkFile(path string) (int, error) {
	f, err := parseFile(path)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, b := range f.Scenarios {
		if b.Kind != parser.KindOutline {
			count++
			continue
		}
		examples, err := parser.Expand(b)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		count += len(examples)
	}
	return count, nil
}

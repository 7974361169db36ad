package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/parser"
	"github.com/chriserin/ftrun/internal/tags"
	"github.com/chriserin/ftrun/internal/ui"
)

var (
	listTags        []string
	listExcludeTags []string
)

var listCmd = &cobra.Command{
	Use:   "list [paths...]",
	Short: "List the concrete scenarios a run would execute",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		include, exclude := cfg.Tags, cfg.ExcludeTags
		if cmd.Flags().Changed("tag") {
			include = listTags
		}
		if cmd.Flags().Changed("exclude-tag") {
			exclude = listExcludeTags
		}
		return RunList(cmd.OutOrStdout(), featurePaths(args, cfg), include, exclude, cfg.Color)
	},
}

func init() {
	listCmd.Flags().StringSliceVarP(&listTags, "tag", "t", nil, "Only list scenarios with one of these tags")
	listCmd.Flags().StringSliceVarP(&listExcludeTags, "exclude-tag", "e", nil, "Skip scenarios with any of these tags")
	rootCmd.AddCommand(listCmd)
}

type listRow struct {
	path string
	line int
	name string
	tags []string
}

func RunList(w io.Writer, paths, include, exclude []string, color bool) error {
	files, err := discover(paths)
	if err != nil {
		return err
	}

	filter := tags.NewFilter(include, exclude)
	var rows []listRow
	for _, path := range files {
		f, err := parseFile(path)
		if err != nil {
			return err
		}
		featureTags := parser.TagNames(f.Tags)

		for _, b := range f.Scenarios {
			effective := tags.Effective(featureTags, parser.TagNames(b.Tags))
			if !filter.ShouldRun(effective) {
				continue
			}
			if b.Kind != parser.KindOutline {
				rows = append(rows, listRow{path: path, line: b.Line, name: b.Name, tags: effective})
				continue
			}
			examples, err := parser.Expand(b)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			for _, ex := range examples {
				rows = append(rows, listRow{
					path: path,
					line: ex.Scenario.Line,
					name: fmt.Sprintf("%s (example %d)", ex.Scenario.Name, ex.Index),
					tags: effective,
				})
			}
		}
	}

	if len(rows) == 0 {
		return nil
	}

	// Compute location column width
	width := 0
	for _, r := range rows {
		if n := len(fmt.Sprintf("%s:%d", r.path, r.line)); n > width {
			width = n
		}
	}

	p := ui.New(w, color)
	for _, r := range rows {
		p.ScenarioRow(r.path, r.line, r.name, r.tags, width)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/config"
	"github.com/chriserin/ftrun/internal/db"
	"github.com/chriserin/ftrun/internal/runner"
	"github.com/chriserin/ftrun/internal/steps"
	"github.com/chriserin/ftrun/internal/ui"
)

// ErrRunFailed is returned when any unit failed or errored.
var ErrRunFailed = errors.New("run failed")

type RunOptions struct {
	Tags            []string
	ExcludeTags     []string
	FailFast        bool
	ScenarioIndices []int
	Color           bool
	DryRun          bool
	Record          bool
	Logger          *slog.Logger
}

var runFlags RunOptions

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Run feature files",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		opts := runFlags
		opts.Logger = log
		flags := cmd.Flags()
		if !flags.Changed("tag") {
			opts.Tags = cfg.Tags
		}
		if !flags.Changed("exclude-tag") {
			opts.ExcludeTags = cfg.ExcludeTags
		}
		if !flags.Changed("failfast") {
			opts.FailFast = cfg.FailFast
		}
		if !flags.Changed("color") {
			opts.Color = cfg.Color
		}
		return RunRun(cmd.Context(), cmd.OutOrStdout(), cfg, featurePaths(args, cfg), opts)
	},
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVarP(&runFlags.Tags, "tag", "t", nil, "Only run scenarios with one of these tags")
	f.StringSliceVarP(&runFlags.ExcludeTags, "exclude-tag", "e", nil, "Skip scenarios with any of these tags")
	f.BoolVar(&runFlags.FailFast, "failfast", false, "Stop at the first failing step")
	f.IntSliceVarP(&runFlags.ScenarioIndices, "scenario-indices", "n", nil, "Only run the scenarios at these 1-based positions in each feature")
	f.BoolVar(&runFlags.Color, "color", false, "Force colored output")
	f.BoolVar(&runFlags.DryRun, "dry-run", false, "Pass every step without executing it")
	f.BoolVar(&runFlags.Record, "record", false, "Record the run in the history database")
	rootCmd.AddCommand(runCmd)
}

func RunRun(ctx context.Context, w io.Writer, cfg config.Config, paths []string, opts RunOptions) error {
	files, err := discover(paths)
	if err != nil {
		return err
	}

	// A file that fails to parse is reported and contributes nothing; the
	// others still run unless fail-fast is on.
	p := ui.New(w, opts.Color)
	features, errs := loadFeatures(files)
	for _, err := range errs {
		p.CheckError(err)
	}
	var parseErr error
	if len(errs) > 0 {
		parseErr = fmt.Errorf("%w: %d feature files failed to parse", ErrRunFailed, len(errs))
		if opts.FailFast {
			return parseErr
		}
	}

	backend, err := newBackend(cfg, opts.DryRun)
	if err != nil {
		return err
	}

	hooks := runner.NewRegistry()
	p.Attach(hooks)
	r := runner.New(backend, hooks, runner.Options{
		Include:         opts.Tags,
		Exclude:         opts.ExcludeTags,
		FailFast:        opts.FailFast,
		ScenarioIndices: opts.ScenarioIndices,
		Logger:          opts.Logger,
	})

	started := time.Now()
	res := r.Run(ctx, features)

	if opts.Record {
		if err := record(w, cfg.Database, res, started, opts.FailFast); err != nil {
			return err
		}
	}

	if parseErr != nil {
		return parseErr
	}
	if !res.Passed() {
		return ErrRunFailed
	}
	return nil
}

// newBackend builds the step registry from the configured shell steps.
func newBackend(cfg config.Config, dryRun bool) (runner.Backend, error) {
	if dryRun {
		return steps.DryRun, nil
	}
	reg := steps.NewRegistry()
	for i, s := range cfg.Steps {
		if err := reg.Define(s.Pattern, steps.Command(s.Run)); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	return reg, nil
}

func record(w io.Writer, dbPath string, res *runner.Result, started time.Time, failFast bool) error {
	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	id, err := db.SaveRun(sqlDB, res, started, failFast)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	fmt.Fprintf(w, "recorded run #%d in %s\n", id, dbPath)
	return nil
}

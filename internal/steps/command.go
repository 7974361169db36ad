package steps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/chriserin/ftrun/internal/runner"
)

// Command returns a StepFunc that runs script with sh -c. Captured groups
// are the positional parameters ($1, $2, ...) and are also exported as
// FTRUN_ARG_1, FTRUN_ARG_2, ...; a doc string is exported as
// FTRUN_DOCSTRING and a table as FTRUN_TABLE (tab-separated cells, one row
// per line). A non-zero exit fails the step.
func Command(script string) StepFunc {
	return func(ctx context.Context, args []string, arg runner.Argument) error {
		cmd := exec.CommandContext(ctx, "sh", append([]string{"-c", script, "ftrun"}, args...)...)
		cmd.Env = append(os.Environ(), commandEnv(args, arg)...)

		out, err := cmd.CombinedOutput()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := fmt.Sprintf("command exited with status %d", exitErr.ExitCode())
			if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
				msg += ": " + trimmed
			}
			return runner.Failf("%s", msg)
		}
		if err != nil {
			return fmt.Errorf("running step command: %w", err)
		}
		return nil
	}
}

func commandEnv(args []string, arg runner.Argument) []string {
	var env []string
	for i, a := range args {
		env = append(env, "FTRUN_ARG_"+strconv.Itoa(i+1)+"="+a)
	}
	if arg.DocString != nil {
		env = append(env, "FTRUN_DOCSTRING="+arg.DocString.Content)
	}
	if arg.Table != nil {
		rows := make([]string, len(arg.Table.Rows))
		for i, row := range arg.Table.Rows {
			rows[i] = strings.Join(row, "\t")
		}
		env = append(env, "FTRUN_TABLE="+strings.Join(rows, "\n"))
	}
	return env
}

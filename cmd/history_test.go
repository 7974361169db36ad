package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_RequiresDatabase(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunHistory(&buf, "features/ftrun.db", 10, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftrun init")
}

func TestHistory_Empty(t *testing.T) {
	inTempDir(t)
	runInit(t)

	var buf bytes.Buffer
	require.NoError(t, RunHistory(&buf, "features/ftrun.db", 10, false))
	assert.Contains(t, buf.String(), "no runs recorded")
}

func TestHistory_NewestFirstAndLimited(t *testing.T) {
	inTempDir(t)
	runInit(t)
	writeFeature(t, "features/shell.feature", "Feature: Shell\n  Scenario: Passing\n    Given the command \"true\" succeeds\n")

	for i := 0; i < 3; i++ {
		_, err := runRun(t, shellConfig(), RunOptions{Record: true})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, RunHistory(&buf, "features/ftrun.db", 2, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "#3 "))
	assert.True(t, strings.HasPrefix(lines[1], "#2 "))
	assert.Contains(t, lines[0], "passed   1 scenario, 0 failed")
}

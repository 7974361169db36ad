package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_ValidFiles(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", `Feature: Login
  Scenario: User logs in
    Given a user

  Scenario Outline: Sign in
    Given the user <name>

    Examples:
      | name  |
      | alice |
      | bob   |
`)

	var buf bytes.Buffer
	require.NoError(t, RunCheck(&buf, []string{"features"}, false))
	assert.Equal(t, "ok  features/login.feature (3 scenarios)\n", buf.String())
}

func TestCheck_ReportsEveryBrokenFile(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/a.feature", "Feature: A\n  Scenario: S\n    Given a\n")
	writeFeature(t, "features/b.feature", "Feature: B\n  Given a\n")
	writeFeature(t, "features/c.feature", `Feature: C
  Scenario Outline: O
    Given the user <nmae>

    Examples:
      | name  |
      | alice |
`)

	var buf bytes.Buffer
	err := RunCheck(&buf, []string{"features"}, false)
	require.Error(t, err)
	assert.Equal(t, "2 of 3 feature files have errors", err.Error())

	out := buf.String()
	assert.Contains(t, out, "ok  features/a.feature (1 scenario)\n")
	assert.Contains(t, out, "err  features/b.feature:2: ")
	assert.Contains(t, out, "err  features/c.feature: line 3: ")
	assert.Contains(t, out, "<nmae>")
}

func TestCheck_SingleFileArgument(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/a.feature", "Feature: A\n  Scenario: S\n    Given a\n")
	writeFeature(t, "features/b.feature", "Feature: B\n  Given a\n")

	var buf bytes.Buffer
	require.NoError(t, RunCheck(&buf, []string{"features/a.feature"}, false))
	assert.NotContains(t, buf.String(), "b.feature")
}

func TestCheck_IgnoresOtherExtensions(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/notes.txt", "not a feature\n")
	writeFeature(t, "features/a.feature", "Feature: A\n  Scenario: S\n    Given a\n")

	var buf bytes.Buffer
	require.NoError(t, RunCheck(&buf, []string{"features"}, false))
	assert.NotContains(t, buf.String(), "notes.txt")
}

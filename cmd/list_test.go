package cmd

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFeature(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll("features", 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runList(t *testing.T, include, exclude []string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RunList(&buf, []string{"features"}, include, exclude, false))
	return buf.String()
}

const taggedFeature = `@auth
Feature: Login
  @smoke
  Scenario: User logs in
    Given a user

  @slow
  Scenario: User is locked out
    Given a user
`

func TestList_SingleScenario(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", `Feature: Login
  Scenario: User logs in
    Given a user
`)

	out := runList(t, nil, nil)
	assert.Equal(t, "features/login.feature:2  User logs in\n", out)
}

func TestList_ScenariosFromMultipleFilesInOrder(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/signup.feature", "Feature: Signup\n  Scenario: User signs up\n    Given a visitor\n")
	writeFeature(t, "features/login.feature", "Feature: Login\n  Scenario: User logs in\n    Given a user\n")

	out := runList(t, nil, nil)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "User logs in")
	assert.Contains(t, lines[1], "User signs up")
}

func TestList_ExpandsOutlines(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", `Feature: Login
  Scenario Outline: Sign in as <name>
    Given the user <name>

    Examples:
      | name  |
      | alice |
      | bob   |
`)

	out := runList(t, nil, nil)
	assert.Equal(t, "features/login.feature:7  Sign in as <name> (example 1)\nfeatures/login.feature:8  Sign in as <name> (example 2)\n", out)
}

func TestList_ShowsEffectiveTags(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", taggedFeature)

	out := runList(t, nil, nil)
	assert.Contains(t, out, "User logs in  @auth @smoke\n")
	assert.Contains(t, out, "User is locked out  @auth @slow\n")
}

func TestList_FiltersByTag(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", taggedFeature)

	out := runList(t, []string{"@smoke"}, nil)
	assert.Contains(t, out, "User logs in")
	assert.NotContains(t, out, "User is locked out")
}

func TestList_ExcludeWinsOverInclude(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", taggedFeature)

	out := runList(t, []string{"auth"}, []string{"slow"})
	assert.Contains(t, out, "User logs in")
	assert.NotContains(t, out, "User is locked out")
}

func TestList_ExcludedFeatureTagDropsEverything(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/login.feature", taggedFeature)

	out := runList(t, nil, []string{"auth"})
	assert.Empty(t, out)
}

func TestList_NoFeaturesDirectory(t *testing.T) {
	inTempDir(t)

	var buf bytes.Buffer
	err := RunList(&buf, []string{"features"}, nil, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ftrun init")
}

func TestList_ParseErrorIsReturned(t *testing.T) {
	inTempDir(t)
	writeFeature(t, "features/bad.feature", "Scenario: orphan\n  Given a user\n")

	var buf bytes.Buffer
	err := RunList(&buf, []string{"features"}, nil, nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "features/bad.feature:1")
}

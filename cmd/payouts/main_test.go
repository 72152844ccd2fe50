package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/config"
)

const exportCSV = "ID,Diamonds,Days,Hours,Status\n" +
	"C1,160000,20,96h 30min,non\n" +
	"C2,100000,14,30,non\n"

const fullMap = "creator_id=ID,diamonds_month=Diamonds,live_days_valid=Days,live_hours_valid=Hours,status_excluding=Status"

// run executes one command line with a fresh viper instance.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := RootCommand(config.New())
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

type fixture struct {
	db      string
	input   string
	ruleset string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	f := fixture{
		db:      filepath.Join(dir, "payouts.db"),
		input:   filepath.Join(dir, "export.csv"),
		ruleset: filepath.Join(dir, "ruleset.yaml"),
	}
	require.NoError(t, os.WriteFile(f.input, []byte(exportCSV), 0o600))

	// The export has no days-since-join column.
	ruleset := "version: cli-test\nrequired_fields: [creator_id, diamonds_month, live_days_valid, live_hours_valid, status_excluding]\n"
	require.NoError(t, os.WriteFile(f.ruleset, []byte(ruleset), 0o600))
	return f
}

func (f fixture) args(args ...string) []string {
	return append(args, "--db-path", f.db, "--ruleset", f.ruleset, "--log-level", "error")
}

func TestCompute_RecordsThresholds(t *testing.T) {
	// GIVEN: An export where C1 crosses 150k
	f := newFixture(t)

	// WHEN: Computing for 2025-12
	stdout, stderr, err := run(t, f.args("compute", "--input", f.input, "--period", "2025-12", "--map", fullMap)...)

	// THEN: The annotated CSV is printed and the crossing is recorded
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "Reward (diamonds)")
	assert.Contains(t, stdout, "C1,160000,20,96.5,non,75 000-500 000,0.02,0,3200,OK,,Yes,2025-12")
	assert.Contains(t, stderr, "2 rows, 2 eligible, 0 excluded, total 4700 diamonds, 1 new thresholds")

	stdout, _, err = run(t, f.args("threshold", "get", "C1")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "C1")
	assert.Contains(t, stdout, "2025-12")

	_, _, err = run(t, f.args("threshold", "get", "C2")...)
	assert.ErrorContains(t, err, `creator "C2" has not reached the threshold`)
}

func TestCompute_DryRunRecordsNothing(t *testing.T) {
	f := newFixture(t)

	_, stderr, err := run(t, f.args("compute", "--input", f.input, "--period", "2025-12", "--map", fullMap, "--dry-run", "--verbose")...)
	require.NoError(t, err, stderr)
	assert.Contains(t, stderr, "(dry run, nothing recorded)")
	assert.Contains(t, stderr, "C1\t75 000-500 000: 3200 at rate 0.02")

	stdout, _, err := run(t, f.args("threshold", "list")...)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "C1")
}

func TestCompute_WritesOutputFile(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	stdout, _, err := run(t, f.args("compute", "-i", f.input, "-p", "2025-12", "-m", fullMap, "-o", out)...)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "First 150k Period")
}

func TestCompute_MappingWarnings(t *testing.T) {
	f := newFixture(t)

	_, stderr, err := run(t, f.args("compute", "--input", f.input, "--map", "creator_id=ID")...)
	assert.ErrorIs(t, err, errMappingIncomplete)
	assert.Contains(t, stderr, "missing or unmapped column: diamonds_month -> ''")
}

func TestCompute_UnknownField(t *testing.T) {
	f := newFixture(t)

	_, _, err := run(t, f.args("compute", "--input", f.input, "--map", "shoe_size=Size")...)
	assert.ErrorContains(t, err, "unknown logical field")
}

func TestThresholdList(t *testing.T) {
	f := newFixture(t)
	_, _, err := run(t, f.args("compute", "--input", f.input, "--period", "2025-11", "--map", fullMap)...)
	require.NoError(t, err)

	stdout, _, err := run(t, f.args("threshold", "list")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "CREATOR")
	assert.Contains(t, stdout, "2025-11")
}

func TestRulesetShowAndValidate(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := run(t, f.args("ruleset", "show")...)
	require.NoError(t, err)
	assert.Contains(t, stdout, "version: cli-test")
	assert.Contains(t, stdout, "round_step: 100")

	stdout, _, err = run(t, f.args("ruleset", "validate", f.ruleset)...)
	require.NoError(t, err)
	assert.Contains(t, stdout, `ruleset "cli-test" is valid: 5 tiers, threshold 150000`)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: x\nround_step: 0\n"), 0o600))
	_, _, err = run(t, f.args("ruleset", "validate", bad)...)
	assert.Error(t, err)
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ccparser/pkg/money"
)

type cli struct {
	t      *testing.T
	dbPath string
	dir    string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	t.Setenv("CCPARSER_DB_DRIVER", "sqlite")
	t.Setenv("CCPARSER_DB_PATH", filepath.Join(dir, "cc.db"))
	t.Setenv("CCPARSER_REPORT_DIR", dir)
	t.Setenv("CCPARSER_ARCHIVE_DIR", filepath.Join(dir, "archive"))
	t.Setenv("CCPARSER_METRICS_FILE", filepath.Join(dir, "ccparser.prom"))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "text")
	return &cli{t: t, dbPath: filepath.Join(dir, "cc.db"), dir: dir}
}

func (c *cli) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(context.Background(), append([]string{"-no-color"}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (c *cli) must(args ...string) string {
	code, stdout, stderr := c.run(args...)
	require.Equal(c.t, exitOK, code, "ccparser %s\nstderr: %s", strings.Join(args, " "), stderr)
	return stdout
}

func (c *cli) statement(name string, count int) (string, []money.StatementLine) {
	lines := money.NewStatementGenerator(7).Lines(count, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC))
	path := filepath.Join(c.dir, name)
	require.NoError(c.t, os.WriteFile(path, []byte(strings.Join(money.Document(lines), "\n")), 0o644))
	return path, lines
}

func TestRun_Usage(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.run()
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "Commands:")

	code, _, stderr = c.run("frobnicate")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "Unknown command: frobnicate")

	code, _, stderr = c.run("create-user", "john")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "Usage: ccparser create-user <username> <email>")

	code, stdout, _ := c.run("help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "recategorize")
}

func TestRun_StatementWorkflow(t *testing.T) {
	c := newCLI(t)

	out := c.must("init-db")
	assert.Contains(t, out, "Database ready (sqlite)")
	assert.Contains(t, out, "transactions")

	out = c.must("create-user", "john", "John@Example.com")
	assert.Contains(t, out, "Created user john <john@example.com>")

	code, _, stderr := c.run("create-user", "john", "other@example.com")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "already exists")

	out = c.must("list-users")
	assert.Contains(t, out, "john@example.com")

	path, lines := c.statement("axis_oct.txt", 40)
	out = c.must("process", path, "john")
	assert.Contains(t, out, "Processed axis_oct.txt: 40 transactions")
	assert.Contains(t, out, money.Format(money.Debits(lines), "INR"))
	assert.Contains(t, out, "Spending by Category")

	code, _, stderr = c.run("process", path, "john")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "already exists")

	out = c.must("process", "-replace", "-xlsx", "oct.xlsx", path, "john")
	assert.Contains(t, out, "Reprocessed axis_oct.txt")
	assert.FileExists(t, filepath.Join(c.dir, "oct.xlsx"))

	out = c.must("statements", "john")
	assert.Contains(t, out, "processed")

	out = c.must("analyze", "-month1", "2024-10", "-month2", "2024-11", "-xlsx", "analysis.xlsx", "john")
	assert.Contains(t, out, "Spending Summary")
	assert.Contains(t, out, "Monthly Trend")
	assert.Contains(t, out, "Monthly Comparison: 2024-10 vs 2024-11")
	assert.FileExists(t, filepath.Join(c.dir, "analysis.xlsx"))

	out = c.must("export", "-format", "csv", "john")
	assert.Equal(t, 41, strings.Count(strings.TrimSpace(out), "\n")+1)

	out = c.must("categories", "john")
	assert.Contains(t, out, "others")

	out = c.must("rules", "upsert", "-priority", "0", "john", "swiggy", "treats")
	assert.Contains(t, out, `Rule "swiggy" -> treats (priority 0)`)
	out = c.must("recategorize", "john")
	assert.Contains(t, out, "Recategorized")

	out = c.must("rules", "list", "john")
	assert.Contains(t, out, "treats")

	metrics, err := os.ReadFile(filepath.Join(c.dir, "ccparser.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `ccparser_command_duration_seconds_count{command="rules"} 1`)
}

func TestRun_ProcessPDF(t *testing.T) {
	c := newCLI(t)
	c.must("init-db")
	c.must("create-user", "john", "john@example.com")

	traces := filepath.Join(c.dir, "spans.json")
	t.Setenv("CCPARSER_TRACE_FILE", traces)
	out := c.must("process", filepath.Join("testdata", "axis_statement.pdf"), "john")
	assert.Contains(t, out, "Processed axis_statement.pdf: 5 transactions")
	assert.Contains(t, out, money.Format(decimal.RequireFromString("2543.56"), "INR"))

	out = c.must("export", "-format", "csv", "john")
	assert.Equal(t, 6, strings.Count(strings.TrimSpace(out), "\n")+1)
	for _, desc := range []string{"SWIGGY BANGALORE", "UBER INDIA", "REFUND AMAZON", "NETFLIX", "IRCTC RAIL"} {
		assert.Contains(t, out, desc)
	}

	spans, err := os.ReadFile(traces)
	require.NoError(t, err)
	assert.Contains(t, string(spans), `"Name":"statement.process"`)
	assert.Contains(t, string(spans), `"Name":"statement.extract"`)
}

func TestRun_Errors(t *testing.T) {
	c := newCLI(t)
	c.must("create-user", "john", "john@example.com")

	code, _, stderr := c.run("transactions", "nobody")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, `user "nobody" not found`)

	code, _, stderr = c.run("transactions", "-from", "2024-11-01", "-to", "2024-10-01", "john")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "error:")

	code, _, _ = c.run("process", filepath.Join(c.dir, "missing.pdf"), "john")
	assert.Equal(t, exitFailure, code)

	code, _, stderr = c.run("set-category", "john", "not-an-id", "food")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "not a valid id")

	metrics, err := os.ReadFile(filepath.Join(c.dir, "ccparser.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `ccparser_command_errors_total{command="set-category",kind="validation"} 1`)
}

func TestRun_StorageFailureExitCode(t *testing.T) {
	c := newCLI(t)

	code, _, stderr := c.run("-db", filepath.Join(c.dir, "missing", "dir", "cc.db"), "init-db")
	assert.Equal(t, exitStorage, code)
	assert.Contains(t, stderr, "error:")
}

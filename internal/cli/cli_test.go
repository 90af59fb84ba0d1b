package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

type rowsOut struct {
	Rows []struct {
		Team    string `json:"team"`
		Project string `json:"project"`
		CP3     string `json:"cp3"`
	} `json:"rows"`
	Report struct {
		Input int `json:"input"`
		Kept  int `json:"kept"`
	} `json:"report"`
}

func TestRowsJSON_Sample(t *testing.T) {
	isolate(t)
	stdout, stderr, err := runCLI(t, []string{"--tz", "UTC", "rows"})
	if err != nil {
		t.Fatalf("rows failed: %v\nstderr:\n%s", err, stderr)
	}
	var got rowsOut
	if err := json.Unmarshal(stdout, &got); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
	}
	if len(got.Rows) != 5 || got.Report.Kept != 5 {
		t.Fatalf("expected the 5 sample rows, got %d (report %+v)", len(got.Rows), got.Report)
	}
	if got.Rows[0].Project != "TX Project 1" || got.Rows[0].CP3 != "2024-03-12" {
		t.Fatalf("unexpected first row: %+v", got.Rows[0])
	}
	if !strings.Contains(string(stderr), "payload loaded") {
		t.Fatalf("expected the load to be logged to stderr, got:\n%s", stderr)
	}
}

func TestRowsFormats(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, []string{"--format", "table", "rows"})
	if err != nil {
		t.Fatalf("rows --format table: %v", err)
	}
	if !strings.Contains(string(stdout), "QA Regression") {
		t.Fatalf("table output missing a row:\n%s", stdout)
	}
	if strings.Contains(string(stdout), "\x1b[") {
		t.Fatalf("table written to a buffer should not be coloured:\n%q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"--format", "edn", "rows"})
	if err != nil {
		t.Fatalf("rows --format edn: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(stdout)), "{") || !strings.Contains(string(stdout), ":rows") {
		t.Fatalf("expected an edn map, got:\n%s", stdout)
	}

	if _, _, err := runCLI(t, []string{"--format", "xml", "rows"}); err == nil {
		t.Fatalf("expected an unknown format to fail")
	}
}

func TestRowsParquetRoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "rows.parquet")

	stdout, stderr, err := runCLI(t, []string{"rows", "--parquet", path})
	if err != nil {
		t.Fatalf("rows --parquet: %v\nstderr:\n%s", err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
	}
	data, _ := env["data"].(map[string]any)
	if data["path"] != path || data["rows"] != float64(5) {
		t.Fatalf("unexpected envelope: %v", env)
	}

	stdout, stderr, err = runCLI(t, []string{"--source", path, "rows"})
	if err != nil {
		t.Fatalf("read back: %v\nstderr:\n%s", err, stderr)
	}
	var got rowsOut
	if err := json.Unmarshal(stdout, &got); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
	}
	if len(got.Rows) != 5 {
		t.Fatalf("expected 5 rows back from parquet, got %d", len(got.Rows))
	}
}

func TestRender(t *testing.T) {
	isolate(t)

	stdout, stderr, err := runCLI(t, []string{"--tz", "UTC", "render", "--width", "800", "--start", "2024-03-01", "--months", "6"})
	if err != nil {
		t.Fatalf("render: %v\nstderr:\n%s", err, stderr)
	}
	svg := string(stdout)
	if !strings.HasPrefix(svg, "<svg") || !strings.Contains(svg, `width="800"`) || !strings.Contains(svg, "data-row=") {
		t.Fatalf("unexpected svg:\n%s", svg)
	}

	out := filepath.Join(t.TempDir(), "chart.svg")
	stdout, stderr, err = runCLI(t, []string{"--tz", "UTC", "render", "-o", out, "--start", "2024-03-01", "--months", "1"})
	if err != nil {
		t.Fatalf("render -o: %v\nstderr:\n%s", err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
	}
	data, _ := env["data"].(map[string]any)
	if data["path"] != out || data["start"] != "2024-03-01" {
		t.Fatalf("unexpected envelope: %v", env)
	}
	b, err := os.ReadFile(out)
	if err != nil || !strings.Contains(string(b), "<svg") {
		t.Fatalf("expected an svg file, err=%v", err)
	}
}

func TestValidate(t *testing.T) {
	isolate(t)

	good := writeFile(t, "good.json", `{"tables": {"DEFAULT": [
		{"dimID": {"team": "TX", "summary": "Apollo", "cp3Date": "2025-03-24"}},
		{"dimID": {"summary": "Orphan", "cp3Date": "2025-03-24"}}
	]}}`)
	stdout, stderr, err := runCLI(t, []string{"validate", good})
	if err != nil {
		t.Fatalf("validate good: %v\nstderr:\n%s", err, stderr)
	}
	if !strings.Contains(string(stdout), "valid: 1/2 rows kept (missing team: 1, missing cp3: 0)") {
		t.Fatalf("unexpected summary:\n%s", stdout)
	}

	bad := writeFile(t, "bad.json", `{"tables": {"DEFAULT": [1]}, "style": []}`)
	stdout, _, err = runCLI(t, []string{"validate", bad})
	if err == nil {
		t.Fatalf("expected schema violations to fail")
	}
	if !strings.Contains(string(stdout), "schema violation") {
		t.Fatalf("expected the violations to be listed:\n%s", stdout)
	}

	yml := writeFile(t, "plan.yaml", `
tables:
  DEFAULT:
    - dimID: {team: BX, summary: Borealis, cp3Date: "6/May/25"}
`)
	stdout, _, err = runCLI(t, []string{"validate", yml})
	if err != nil || !strings.Contains(string(stdout), "valid: 1/1 rows kept") {
		t.Fatalf("validate yaml: err=%v\n%s", err, stdout)
	}
}

func TestConfigFile(t *testing.T) {
	isolate(t)

	src := writeFile(t, "rows.csv", "team,summary,cp3Date,cp5Date\nTX,Apollo,2025-03-24,2025-09-09\n")
	cfg := writeFile(t, "cpgantt.yaml", "source: "+src+"\ntz: UTC\n")
	stdout, stderr, err := runCLI(t, []string{"--config", cfg, "rows"})
	if err != nil {
		t.Fatalf("rows with config: %v\nstderr:\n%s", err, stderr)
	}
	var got rowsOut
	if err := json.Unmarshal(stdout, &got); err != nil {
		t.Fatalf("unmarshal: %v\nstdout:\n%s", err, stdout)
	}
	if len(got.Rows) != 1 || got.Rows[0].Project != "Apollo" {
		t.Fatalf("expected the configured source, got %+v", got.Rows)
	}

	// Flags win over the file.
	stdout, _, err = runCLI(t, []string{"--config", cfg, "--source", "", "rows"})
	if err != nil {
		t.Fatalf("rows with flag override: %v", err)
	}
	if err := json.Unmarshal(stdout, &got); err != nil || len(got.Rows) != 5 {
		t.Fatalf("expected the sample after overriding --source, got %d rows (err %v)", len(got.Rows), err)
	}

	bad := writeFile(t, "bad.yaml", "months: 13\n")
	_, _, err = runCLI(t, []string{"--config", bad, "render"})
	if err == nil || !strings.Contains(err.Error(), "months must be between 1 and 12") {
		t.Fatalf("expected a months validation error, got %v", err)
	}
}

func TestWebTUIPassthroughArgs(t *testing.T) {
	root := NewRootCmd()
	sub, _, err := root.Find([]string{"webtui"})
	if err != nil {
		t.Fatalf("find webtui: %v", err)
	}
	if err := sub.ParseFlags([]string{"--source", "plan.csv", "--months", "6", "--addr", ":0", "--pretty"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	got := passthroughArgs(sub.Flags())
	want := []string{"--source=plan.csv", "--months=6"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("passthroughArgs = %v, want %v", got, want)
	}
}

func TestDocs(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, []string{"docs"})
	if err != nil {
		t.Fatalf("docs: %v", err)
	}
	for _, topic := range []string{`"config"`, `"keys"`, `"payload"`, `"sources"`, `"Payload format"`} {
		if !strings.Contains(string(stdout), topic) {
			t.Fatalf("docs list missing %s:\n%s", topic, stdout)
		}
	}

	stdout, _, err = runCLI(t, []string{"docs", "payload", "--raw"})
	if err != nil || !strings.HasPrefix(string(stdout), "# Payload format") {
		t.Fatalf("docs payload --raw: err=%v\n%s", err, stdout)
	}

	if _, _, err := runCLI(t, []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected an unknown topic to fail")
	}
}

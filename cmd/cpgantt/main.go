package main

import (
	"os"
	"path/filepath"
	"strings"

	"cpgantt/internal/cli"
)

var payloadExts = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".csv": true,
	".parquet": true, ".db": true, ".sqlite": true, ".sqlite3": true,
}

func isPayloadPath(s string) bool {
	s = strings.TrimSpace(s)
	if s == "-" {
		return true
	}
	return payloadExts[strings.ToLower(filepath.Ext(s))]
}

func rewriteSourceShorthandArgs(argv []string) []string {
	// Convenience: `cpgantt data.csv` works like `cpgantt --source data.csv`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv before parsing.
	// Persistent flags may come first (e.g. `cpgantt --tz UTC data.csv`), so we look for the
	// first positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config":     true,
		"--source":     true,
		"--driver":     true,
		"--query":      true,
		"--table":      true,
		"--tz":         true,
		"--log-level":  true,
		"--log-file":   true,
		"--log-format": true,
		"--format":     true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	insertAt := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "--source")
		out = append(out, argv[i:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if a != "-" && strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++ // skip value if present
			}
			continue
		}

		// First positional token.
		if isPayloadPath(a) {
			return insertAt(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteSourceShorthandArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

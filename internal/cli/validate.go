package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cpgantt/internal/payload"
	"cpgantt/internal/source"
)

func newValidateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Check a payload against the schema and report what would be drawn",
		Long: strings.TrimSpace(`
Validate a payload. JSON and YAML files are checked against the payload schema first and
every violation is listed. Valid payloads are then shaped and the row report is printed.

Without a path the configured --source is validated.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := app.cfg.Source
			if len(args) == 1 {
				spec = source.Spec{Path: strings.TrimSpace(args[0])}
			}
			out := cmd.OutOrStdout()

			if isSchemaFile(spec.Path) {
				if err := source.ValidateFile(spec.Path); err != nil {
					printViolations(out, err)
					if errors.Is(err, payload.ErrInvalidPayload) {
						return fmt.Errorf("%s: %w", spec.Path, payload.ErrInvalidPayload)
					}
					return err
				}
			}

			p, err := source.Load(cmd.Context(), spec)
			if err != nil {
				printViolations(out, err)
				return err
			}
			c := app.newChart()
			rep := c.Load(p.WithStyle(app.cfg.Style).WithPalette(app.cfg.Palette))

			color.New(color.FgGreen).Fprintf(out, "valid: %s\n", rep.String())
			if rep.Kept == 0 {
				color.New(color.FgYellow).Fprintln(out, "warning: no rows would be drawn")
			}
			return nil
		},
	}
	return cmd
}

func isSchemaFile(path string) bool {
	if path == "" || path == "-" {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

func printViolations(w io.Writer, err error) {
	red := color.New(color.FgRed, color.Bold)
	var verrs payload.ValidationErrors
	if !errors.As(err, &verrs) {
		red.Fprintf(w, "invalid: %v\n", err)
		return
	}
	red.Fprintf(w, "invalid payload: %d schema violation(s)\n", len(verrs))
	for _, e := range verrs {
		fmt.Fprintf(w, "  - %s\n", e.Error())
	}
}

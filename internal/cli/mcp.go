package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"cpgantt/internal/mcpserver"
)

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the shape, render and validate tools over MCP stdio",
		Long: strings.TrimSpace(`
Run a Model Context Protocol server on stdin/stdout.

Tools:
- shape_rows: shaped rows and the drop report for a payload
- render_svg: an SVG chart for a payload
- validate_payload: schema check plus row report

Logs go to stderr (or --log-file); stdout carries the protocol.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			app.logger.Info("mcp server starting", "tz", cfg.Location.String())
			err := mcpserver.Serve(cmd.Context(), mcpserver.Config{
				Fields:   cfg.Fields,
				Location: cfg.Location,
				Width:    float64(cfg.Width),
				Height:   float64(cfg.Height),
				Months:   cfg.Months,
				Logger:   app.logger,
				Now:      app.now,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
}

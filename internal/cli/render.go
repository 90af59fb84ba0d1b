package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the chart as a standalone SVG",
		Long: strings.TrimSpace(`
Render the chart once as an SVG document.

The window starts at --start (or fits the data) and spans --months calendar months,
clamped to one calendar year. A --height of 0 grows the image to fit every row.
`),
		Example: strings.TrimSpace(`
cpgantt --source payload.json render > timeline.svg
cpgantt --source payload.json render -o timeline.svg --start 2025-03-01 --months 6
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.loadChart(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg := app.cfg
			now := app.now()
			win := c.ResolveWindow(now, cfg.Start, cfg.Months)

			if out == "" || out == "-" {
				if err := c.WriteSVG(cmd.OutOrStdout(), win, float64(cfg.Width), float64(cfg.Height), now); err != nil {
					return writeErr(cmd, err)
				}
				return nil
			}

			f, err := os.Create(out)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("create %s: %w", out, err))
			}
			if err := c.WriteSVG(f, win, float64(cfg.Width), float64(cfg.Height), now); err != nil {
				_ = f.Close()
				return writeErr(cmd, err)
			}
			if err := f.Close(); err != nil {
				return writeErr(cmd, err)
			}
			app.logger.Info("svg written", "path", out)

			loc := c.Location()
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"path":   out,
					"start":  win.Start.In(loc).Format("2006-01-02"),
					"end":    win.End.In(loc).Format("2006-01-02"),
					"report": c.Report(),
				},
			})
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the SVG to this file instead of stdout")
	cmd.Flags().Int("width", 0, "SVG width in pixels (default 1200)")
	cmd.Flags().Int("height", 0, "SVG height in pixels (0 fits every row)")
	cmd.Flags().Int("months", 0, "Window length in months (1-12)")
	cmd.Flags().String("start", "", "Window start date, e.g. 2025-03-01 or 1/Mar/25")
	return cmd
}

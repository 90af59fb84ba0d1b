package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"cpgantt/internal/format"
	"cpgantt/internal/source"
)

func newRowsCmd(app *App) *cobra.Command {
	var parquetPath string

	cmd := &cobra.Command{
		Use:   "rows",
		Short: "List the shaped checkpoint rows",
		Long: strings.TrimSpace(`
Shape the payload the way the chart does and print one row per drawn project, with the
days remaining until CP5 and a report of the records that were dropped.
`),
		Example: strings.TrimSpace(`
cpgantt --source checkpoints.csv rows --format table
cpgantt --source payload.json rows --format edn --pretty
cpgantt --source payload.json rows --parquet rows.parquet
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := outputFormat(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.loadChart(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}

			if parquetPath != "" {
				if err := source.WriteParquet(parquetPath, c.Rows()); err != nil {
					return writeErr(cmd, err)
				}
				app.logger.Info("parquet written", "path", parquetPath, "rows", len(c.Rows()))
				return writeOut(cmd, app, map[string]any{
					"data": map[string]any{
						"path":   parquetPath,
						"rows":   len(c.Rows()),
						"report": c.Report(),
					},
				})
			}

			res := format.NewRowsResult(c.Rows(), c.Report(), app.now())
			useColor := !color.NoColor && isTerminal(cmd.OutOrStdout())
			if err := format.WriteRows(cmd.OutOrStdout(), res, f, app.PrettyJSON, useColor); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&parquetPath, "parquet", "", "Write the rows to this parquet file instead of printing them")
	return cmd
}

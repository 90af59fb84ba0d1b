package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"cpgantt/internal/chart"
	"cpgantt/internal/config"
	"cpgantt/internal/format"
	"cpgantt/internal/logging"
	"cpgantt/internal/payload"
	"cpgantt/internal/source"
	"cpgantt/internal/tui"
)

type App struct {
	ConfigPath string
	PrettyJSON bool
	Format     string

	v         *viper.Viper
	cfg       config.Config
	logger    *log.Logger
	logCloser io.Closer
	now       func() time.Time
}

// Flags whose values resolve through viper. Every other flag is read directly.
var configKeys = map[string]bool{
	"source": true, "driver": true, "query": true, "table": true, "tz": true,
	"log-level": true, "log-file": true, "log-format": true,
	"addr": true, "width": true, "height": true, "months": true, "start": true,
}

func NewRootCmd() *cobra.Command {
	app := &App{v: viper.New(), now: time.Now}

	cmd := &cobra.Command{
		Use:          "cpgantt",
		Short:        "Checkpoint timeline chart for the terminal, the browser and scripts",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Explore the bundled sample in the terminal
  cpgantt

  # Chart a CSV export, starting at a given date
  cpgantt --source checkpoints.csv tui --start 2025-03-01 --months 6

  # Render an SVG for a report
  cpgantt --source payload.json render -o timeline.svg --width 1600

  # List shaped rows as a table
  cpgantt --source payload.json rows --format table
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.logCloser != nil {
			return app.logCloser.Close()
		}
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", "", "Config file (default: .cpgantt.yaml in . or $HOME)")
	pf.String("source", "", "Payload source: .json, .yaml, .csv, .parquet, .db file, '-' for stdin, or a DSN with --driver (default: bundled sample)")
	pf.String("driver", "", "SQL driver for --source: sqlite, postgres or mysql")
	pf.String("query", "", "SQL query returning one record per row")
	pf.String("table", "", "SQL table to read when --query is empty")
	pf.String("tz", "", "Time zone for dates and the today line (default: Local)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-file", "", "Append logs to this file (the TUI logs nowhere else)")
	pf.String("log-format", "", "Log format: text, json, logfmt")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.Format, "format", envOr("CPGANTT_FORMAT", "json"), "Output format (json|edn|table)")

	cmd.AddCommand(newTUICmd(app))
	cmd.AddCommand(newRenderCmd(app))
	cmd.AddCommand(newRowsCmd(app))
	cmd.AddCommand(newValidateCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWebTUICmd(app))
	cmd.AddCommand(newMCPCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// setup resolves configuration and opens the logger for the command about to run.
func (app *App) setup(cmd *cobra.Command) error {
	config.Init(app.v, app.ConfigPath)
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if configKeys[f.Name] && bindErr == nil {
			bindErr = app.v.BindPFlag(f.Name, f)
		}
	})
	if bindErr != nil {
		return writeErr(cmd, bindErr)
	}
	if err := config.ReadFile(app.v); err != nil {
		return writeErr(cmd, err)
	}
	cfg, err := config.Load(app.v)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	// The TUI owns the terminal, so its logs go to the file or nowhere.
	var fallback io.Writer = cmd.ErrOrStderr()
	if isTUICommand(cmd) {
		fallback = io.Discard
	}
	logger, closer, err := logging.Open(cfg.LogFile, app.v.GetString("log-level"), app.v.GetString("log-format"), fallback)
	if err != nil {
		return writeErr(cmd, err)
	}
	app.logger, app.logCloser = logger, closer
	if used := app.v.ConfigFileUsed(); used != "" {
		app.logger.Debug("config file loaded", "path", used)
	}
	return nil
}

func isTUICommand(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

// loadPayload reads the configured source and layers the configured style and palette on top.
func (app *App) loadPayload(ctx context.Context) (payload.Payload, error) {
	p, err := source.Load(ctx, app.cfg.Source)
	if err != nil {
		return payload.Payload{}, err
	}
	return p.WithStyle(app.cfg.Style).WithPalette(app.cfg.Palette), nil
}

func (app *App) newChart() *chart.Chart {
	return chart.New(chart.Options{Fields: app.cfg.Fields, Location: app.cfg.Location, Logger: app.logger})
}

// loadChart loads the configured source into a new chart.
func (app *App) loadChart(ctx context.Context) (*chart.Chart, error) {
	p, err := app.loadPayload(ctx)
	if err != nil {
		return nil, err
	}
	c := app.newChart()
	rep := c.Load(p)
	app.logger.Info("payload loaded", "source", app.cfg.Source.String(), "kept", rep.Kept, "dropped", rep.Dropped())
	return c, nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	c, err := app.loadChart(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	return tui.Run(tui.Options{
		Chart:  c,
		Months: app.cfg.Months,
		Start:  app.cfg.Start,
		Reload: app.loadPayload,
		Logger: app.logger,
		Now:    app.now,
	})
}

func newTUICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Explore the chart in the terminal (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}
	cmd.Flags().Int("months", 0, "Window length in months (1-12)")
	cmd.Flags().String("start", "", "Window start date")
	return cmd
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func outputFormat(app *App) (string, error) {
	return format.ParseFormat(app.Format)
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	f, err := outputFormat(app)
	if err != nil {
		return err
	}
	if f == format.Table {
		f = format.JSON
	}
	return format.Write(cmd.OutOrStdout(), v, f, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

// isTerminal reports whether w is a terminal; buffers and pipes are not.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

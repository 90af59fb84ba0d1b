package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cpgantt/internal/webtui"
)

// Flags forwarded to the `cpgantt tui` process each webtui page spawns.
var tuiPassthroughFlags = []string{
	"config", "source", "driver", "query", "table", "tz",
	"log-level", "log-file", "log-format", "months", "start",
}

func newWebTUICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webtui",
		Short: "Run the terminal UI in your browser (PTY + WebSocket)",
		Long: strings.TrimSpace(`
Run the terminal chart over the web via a server-side PTY and a browser terminal emulator.

Notes:
- No auth; bind to localhost unless you trust the network.
- Each browser tab starts a ` + "`cpgantt tui`" + ` subprocess with this command's source flags.
- Tabs beyond --max-sessions get 503 until one closes.
`),
		Example: strings.TrimSpace(`
cpgantt --source payload.json webtui --addr 127.0.0.1:3334
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			maxSessions, _ := cmd.Flags().GetInt("max-sessions")
			srv, err := webtui.NewServer(webtui.ServerConfig{
				Addr:        app.cfg.Addr,
				Args:        passthroughArgs(cmd.Flags()),
				MaxSessions: maxSessions,
				Logger:      app.logger,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			listenAddr := ln.Addr().String()

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      listenAddr,
					"source":    app.cfg.Source.String(),
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": []string{
					"open http://" + listenAddr,
				},
			})

			fmt.Fprintf(cmd.ErrOrStderr(), "cpgantt webtui running at http://%s (source=%s)\n", listenAddr, app.cfg.Source.String())
			return serveUntilDone(ctx, ln, srv.Handler())
		},
	}

	cmd.Flags().String("addr", "", "Bind address (host:port or :port, default 127.0.0.1:8080)")
	cmd.Flags().Int("max-sessions", 0, "Concurrent browser sessions (default 8)")
	cmd.Flags().Int("months", 0, "Window length in months (1-12)")
	cmd.Flags().String("start", "", "Window start date")
	return cmd
}

// passthroughArgs returns the explicitly set tui flags as --name=value arguments.
func passthroughArgs(fs *pflag.FlagSet) []string {
	var out []string
	for _, name := range tuiPassthroughFlags {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		out = append(out, "--"+name+"="+f.Value.String())
	}
	return out
}

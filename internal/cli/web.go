package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"cpgantt/internal/web"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *App) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive chart to browsers",
		Long: strings.TrimSpace(`
Serve the chart from a local HTTP server.

Each page gets its own session: pointer, wheel and key input is posted back to the server,
which drives the viewport and streams SVG patches to the page over SSE.
POST /reload re-reads the source and switches every open page to the new data.
`),
		Example: strings.TrimSpace(`
cpgantt --source payload.json serve --addr 127.0.0.1:8080
cpgantt --source 'postgres://localhost/pm' --driver postgres --table checkpoints serve --open=false
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := app.cfg
			srv, err := web.NewServer(ctx, web.ServerConfig{
				Addr:     cfg.Addr,
				Load:     app.loadPayload,
				Fields:   cfg.Fields,
				Location: cfg.Location,
				Months:   cfg.Months,
				Start:    cfg.Start,
				Logger:   app.logger,
				Now:      app.now,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			defer srv.Close()

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			url := "http://" + ln.Addr().String() + "/"

			opened := false
			if open {
				if err := openPath(url); err != nil {
					app.logger.Warn("failed to open browser", "err", err)
				} else {
					opened = true
				}
			}
			hints := []string{}
			if !opened {
				hints = append(hints, "open "+url)
			}
			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      ln.Addr().String(),
					"url":       url,
					"source":    cfg.Source.String(),
					"opened":    opened,
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
				"_hints": hints,
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "cpgantt web running at %s (source=%s)\n", url, cfg.Source.String())

			return serveUntilDone(ctx, ln, srv.Handler())
		},
	}

	cmd.Flags().String("addr", "", "Bind address (host:port or :port, default 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&open, "open", true, "Open the page in your default browser")
	return cmd
}

// serveUntilDone serves h on ln until ctx ends, then shuts down gracefully.
func serveUntilDone(ctx context.Context, ln net.Listener, h http.Handler) error {
	hs := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- hs.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// SSE streams never finish on their own.
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return hs.Close()
		}
		return nil
	}
}

func openPath(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("empty path")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path).Run()
	case "windows":
		return exec.Command("cmd", "/c", "start", "", path).Run()
	default:
		return exec.Command("xdg-open", path).Run()
	}
}

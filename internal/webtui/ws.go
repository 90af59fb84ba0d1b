package webtui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"
)

const (
	initialCols = 120
	initialRows = 40
	writeWait   = 10 * time.Second

	// defaultMaxSessions caps concurrent tui processes when ServerConfig.MaxSessions is 0.
	defaultMaxSessions = 8
)

type wsMsg struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header and those whose origin names the
// request host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	host := strings.TrimSpace(r.Host)
	return host != "" && strings.HasSuffix(origin, "://"+host)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if n := s.active.Add(1); int(n) > s.maxSessions() {
		s.active.Add(-1)
		s.logger.Warn("tui session refused", "active", n-1, "max", s.maxSessions())
		http.Error(w, "too many terminal sessions", http.StatusServiceUnavailable)
		return
	}
	defer s.active.Add(-1)

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ptmx, cmd, cleanup, err := s.startPTYSession(r.URL.Query().Get("theme"))
	if err != nil {
		s.logger.Error("tui session failed to start", "err", err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start session: "+err.Error()))
		return
	}
	defer cleanup()
	s.logger.Info("tui session started", "pid", cmd.Process.Pid, "remote", r.RemoteAddr)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errCh <- pumpPTYToWS(ctx, ptmx, conn)
	}()
	go func() {
		defer wg.Done()
		errCh <- pumpWSToPTY(ctx, conn, ptmx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			s.logger.Debug("tui session pump ended", "err", err)
		}
	}
	cancel()

	_ = cmd.Process.Kill()
	_ = ptmx.Close()
	_ = conn.Close()
	wg.Wait()
	s.logger.Info("tui session ended", "pid", cmd.Process.Pid)
}

// tuiArgs is the child command line: the tui subcommand plus the configured flags.
func (s *Server) tuiArgs() []string {
	return append([]string{"tui"}, s.cfg.Args...)
}

func (s *Server) maxSessions() int {
	if s.cfg.MaxSessions > 0 {
		return s.cfg.MaxSessions
	}
	return defaultMaxSessions
}

// childEnv is the tui process environment. The browser theme, when light or dark, picks the
// tui palette since the child cannot query the browser's background.
func childEnv(theme string) []string {
	env := append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)
	switch t := strings.ToLower(strings.TrimSpace(theme)); t {
	case "light", "dark":
		env = append(env, "CPGANTT_TUI_THEME="+t)
	}
	return env
}

func (s *Server) startPTYSession(theme string) (*os.File, *exec.Cmd, func(), error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, nil, nil, err
	}

	cmd := exec.Command(exe, s.tuiArgs()...)
	cmd.Env = childEnv(theme)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: initialCols, Rows: initialRows})
	if err != nil {
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = ptmx.Close()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}
	return ptmx, cmd, cleanup, nil
}

func pumpPTYToWS(ctx context.Context, ptmx io.Reader, conn *websocket.Conn) error {
	buf := make([]byte, 32*1024)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := ptmx.Read(buf)
		if n > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func pumpWSToPTY(ctx context.Context, conn *websocket.Conn, ptmx *os.File) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		// Control messages are JSON text; keystrokes are plain text or binary.
		if m, ok := parseControl(mt, data); ok {
			if m.Type == "resize" {
				_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(m.Cols), Rows: uint16(m.Rows)})
			}
			continue
		}
		if len(data) == 0 {
			continue
		}
		if _, err := ptmx.Write(data); err != nil {
			return err
		}
	}
}

// parseControl decodes a JSON control frame. Resize frames need positive sizes.
func parseControl(mt int, data []byte) (wsMsg, bool) {
	if mt != websocket.TextMessage || len(data) == 0 || data[0] != '{' {
		return wsMsg{}, false
	}
	var m wsMsg
	if err := json.Unmarshal(data, &m); err != nil {
		return wsMsg{}, true
	}
	m.Type = strings.ToLower(strings.TrimSpace(m.Type))
	if m.Type == "resize" && (m.Cols <= 0 || m.Rows <= 0 || m.Cols > 1000 || m.Rows > 1000) {
		m.Type = ""
	}
	return m, true
}

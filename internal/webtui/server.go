// Package webtui serves the terminal UI to a browser: each websocket gets its own
// `cpgantt tui` child on a PTY, rendered client-side by xterm.js.
package webtui

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"cpgantt/internal/logging"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	// Args are passed to the tui subcommand, usually the caller's source and config flags.
	Args []string
	// MaxSessions caps concurrent tui children. Zero means defaultMaxSessions.
	MaxSessions int
	Logger      *log.Logger
}

type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	logger *log.Logger
	active atomic.Int32
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{cfg: cfg, tmpl: tmpl, logger: logger}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

// Handler routes the terminal page, its assets, the websocket and a session count.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /{$}", http.RedirectHandler("/terminal", http.StatusFound))
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /sessions", s.handleSessions)
	mux.Handle("GET /static/", http.FileServerFS(assetsFS))
	return mux
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{
		"active": int(s.active.Load()),
		"max":    s.maxSessions(),
	})
}

type terminalVM struct {
	Command string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	vm := terminalVM{Command: strings.Join(append([]string{"cpgantt", "tui"}, s.cfg.Args...), " ")}
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "terminal.html", vm); err != nil {
		s.logger.Error("terminal page", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

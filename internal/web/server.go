// Package web serves the chart to browsers. Each page gets a session whose single event loop
// owns the viewport controller; browser input arrives as posted events and the chart goes
// back as datastar SSE patches.
package web

import (
	"context"
	"crypto/rand"
	"embed"
	"encoding/base32"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/starfederation/datastar-go/datastar"

	"cpgantt/internal/chart"
	"cpgantt/internal/logging"
	"cpgantt/internal/payload"
	"cpgantt/internal/shape"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

const keepAliveInterval = 25 * time.Second

type ServerConfig struct {
	Addr string
	// Load fetches the payload at start and on POST /reload.
	Load     func(context.Context) (payload.Payload, error)
	Fields   shape.FieldMap
	Location *time.Location
	Months   int
	Start    time.Time
	Logger   *log.Logger
	Now      func() time.Time
}

type Server struct {
	cfg    ServerConfig
	tmpl   *template.Template
	logger *log.Logger
	hub    *resourceHub

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.RWMutex
	chart    *chart.Chart
	sessions map[string]*session
}

type pageVM struct {
	ID     string
	Report string
}

// NewServer loads the payload once and prepares the handler. Close stops every session.
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if cfg.Load == nil {
		return nil, errors.New("web: no payload loader")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:      cfg,
		tmpl:     tmpl,
		logger:   cfg.Logger,
		hub:      newResourceHub(),
		sessions: map[string]*session{},
	}
	if err := srv.Reload(ctx); err != nil {
		return nil, err
	}
	srv.ctx, srv.cancel = context.WithCancel(context.Background())
	return srv, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Close ends every session loop.
func (s *Server) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) current() *chart.Chart {
	s.mu.RLock()
	c := s.chart
	s.mu.RUnlock()
	return c
}

// Reload fetches the payload into a fresh chart and tells every session to switch to it.
func (s *Server) Reload(ctx context.Context) error {
	p, err := s.cfg.Load(ctx)
	if err != nil {
		return fmt.Errorf("web: load payload: %w", err)
	}
	c := chart.New(chart.Options{Fields: s.cfg.Fields, Location: s.cfg.Location, Logger: s.logger})
	rep := c.Load(p)
	s.logger.Info("payload loaded", "kept", rep.Kept, "dropped", rep.Dropped())

	s.mu.Lock()
	s.chart = c
	s.mu.Unlock()
	s.hub.broadcast()
	return nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))
	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("POST /reload", s.handleReload)
	mux.HandleFunc("POST /s/{id}/events", s.handleEvents)
	mux.HandleFunc("GET /s/{id}/stream", s.handleStream)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

// newSessionID returns s-<8 lowercase base32 chars>.
func newSessionID() (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return "s-" + strings.ToLower(enc.EncodeToString(b[:])), nil
}

// startSession registers a new session and starts its loop.
func (s *Server) startSession() (*session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	reloaded, unsubscribe := s.hub.subscribe()
	sess := newSession(sessionOptions{
		ID:       id,
		Chart:    s.current,
		Reloaded: reloaded,
		Months:   s.cfg.Months,
		Start:    s.cfg.Start,
		Logger:   s.logger,
		Now:      s.cfg.Now,
	})

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	go func() {
		sess.run(s.ctx)
		unsubscribe()
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()
	return sess, nil
}

func (s *Server) session(id string) *session {
	s.mu.RLock()
	sess := s.sessions[id]
	s.mu.RUnlock()
	return sess
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, err := s.startSession()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, "index.html", pageVM{ID: sess.id, Report: s.current().Report().String()}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		s.logger.Warn("reload failed", "err", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	var ev Event
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&ev); err != nil {
		http.Error(w, "bad event: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !eventTypes[ev.Type] {
		http.Error(w, fmt.Sprintf("unknown event type %q", ev.Type), http.StatusBadRequest)
		return
	}
	if err := sess.post(r.Context(), func() { sess.apply(ev) }); err != nil {
		http.Error(w, err.Error(), http.StatusGone)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r.PathValue("id"))
	if sess == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if err := sess.post(r.Context(), sess.attach); err != nil {
		http.Error(w, err.Error(), http.StatusGone)
		return
	}
	defer func() { _ = sess.post(context.Background(), sess.detach) }()

	sse := datastar.NewSSE(w, r)
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-sess.done:
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case p := <-sess.out:
			if err := sse.PatchElements(p.html, datastar.WithSelector(p.selector), datastar.WithMode(p.mode)); err != nil {
				s.logger.Debug("stream write failed", "session", sess.id, "err", err)
				return
			}
		}
	}
}

type resourceHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *resourceHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// Package server serves a live diagnostics dashboard: a single page
// whose table refreshes over SSE whenever a watched source file
// changes and the re-analysis completes.
package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/sync/errgroup"

	"github.com/reap-dev/reap/internal/discover"
	"github.com/reap-dev/reap/internal/history"
	"github.com/reap-dev/reap/pkg/engine"
	"github.com/reap-dev/reap/pkg/lint"
)

// Config configures the dashboard server.
type Config struct {
	Paths   []string
	Engine  *engine.Engine
	Exclude []string
	Port    int
	Logger  *slog.Logger

	// History, when non-nil, records every completed analysis run.
	History *history.Store
}

// Server owns the HTTP endpoints, the file watcher, and the latest
// analysis snapshot.
type Server struct {
	cfg      Config
	logger   *slog.Logger
	notifier *Notifier

	mu     sync.RWMutex
	runID  string
	runAt  time.Time
	files  int
	diags  []lint.Diagnostic
	runErr error
}

// New creates a dashboard server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{cfg: cfg, logger: logger, notifier: NewNotifier()}
}

// Serve runs the initial analysis, starts the HTTP server and the file
// watcher, and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.refresh(ctx)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting dashboard", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)

	r := chi.NewMux()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleIndex)
	r.Get("/updates", s.handleUpdates)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.watchFiles(egctx)
	})

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// refresh re-runs the analysis and swaps in the new snapshot.
func (s *Server) refresh(ctx context.Context) {
	files, err := discover.Discover(s.cfg.Paths, discover.Options{Exclude: s.cfg.Exclude})
	var res *engine.Result
	if err == nil {
		res, err = s.cfg.Engine.Run(ctx, files)
	}

	s.mu.Lock()
	s.runID = uuid.NewString()
	s.runAt = time.Now()
	s.runErr = err
	if err == nil {
		s.files = res.Files
		s.diags = res.Diagnostics
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("analysis failed", "error", err)
		return
	}
	if s.cfg.History != nil {
		if _, herr := s.cfg.History.RecordRun(res.Files, res.Diagnostics); herr != nil {
			s.logger.Error("recording run", "error", herr)
		}
	}
	s.logger.Debug("analysis refreshed", "files", res.Files, "diagnostics", len(res.Diagnostics))
}

// watchFiles re-analyzes on source changes and pings SSE listeners.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range s.cfg.Paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return err
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
		if err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(ev.Name, discover.Extension) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, func() {
				s.refresh(ctx)
				s.notifier.Broadcast()
			})
		case <-watcher.Errors:
		}
	}
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>reap dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<style>
body { font-family: ui-monospace, monospace; margin: 2rem; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.3rem 0.8rem; border-bottom: 1px solid #ddd; }
.meta { color: #777; margin-bottom: 1rem; }
.code { font-weight: bold; }
</style>
</head>
<body data-on-load="@get('/updates')">
{{template "diagnostics" .}}
</body>
</html>

{{define "diagnostics"}}<div id="diagnostics">
<h1>reap</h1>
<p class="meta">run {{.RunID}} · {{.RunAt}} · {{.Files}} file(s) · {{.Count}} issue(s){{if .Err}} · error: {{.Err}}{{end}}</p>
<table>
<tr><th>File</th><th>Line</th><th>Col</th><th>Code</th><th>Message</th></tr>
{{range .Diags}}<tr><td>{{.File}}</td><td>{{.Line}}</td><td>{{.Col}}</td><td class="code">{{.RuleID}}</td><td>{{.Message}}</td></tr>
{{end}}</table>
</div>{{end}}`))

type pageData struct {
	RunID string
	RunAt string
	Files int
	Count int
	Err   string
	Diags []lint.Diagnostic
}

func (s *Server) snapshot() pageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := pageData{
		RunID: s.runID,
		RunAt: s.runAt.Format("15:04:05"),
		Files: s.files,
		Count: len(s.diags),
		Diags: s.diags,
	}
	if s.runErr != nil {
		data.Err = s.runErr.Error()
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	if err := pageTemplate.Execute(w, s.snapshot()); err != nil {
		s.logger.Error("rendering page", "error", err)
	}
}

// handleUpdates is the long-lived SSE endpoint: each broadcast patches
// the diagnostics fragment in place.
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			var body bytes.Buffer
			if err := pageTemplate.ExecuteTemplate(&body, "diagnostics", s.snapshot()); err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElements(body.String()); err != nil {
				return
			}
		}
	}
}

// Package watch re-runs the analysis whenever a source file changes
// and presents the live diagnostic list in a terminal UI.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/reap-dev/reap/internal/discover"
	"github.com/reap-dev/reap/pkg/engine"
	"github.com/reap-dev/reap/pkg/lint"
)

// Config configures a watch session.
type Config struct {
	Paths   []string
	Engine  *engine.Engine
	Exclude []string
}

// Run starts the watcher and blocks until the user quits or the
// context is cancelled.
func Run(ctx context.Context, cfg Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, root := range cfg.Paths {
		if err := addRecursive(watcher, root); err != nil {
			return err
		}
	}

	p := tea.NewProgram(newModel(cfg), tea.WithContext(ctx), tea.WithAltScreen())

	go forwardEvents(ctx, watcher, p)

	_, err = p.Run()
	if err == tea.ErrProgramKilled && ctx.Err() != nil {
		return nil
	}
	return err
}

// addRecursive registers root and every subdirectory whose name does
// not start with a dot, since fsnotify watches are not recursive.
func addRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// forwardEvents debounces filesystem events into change messages so a
// burst of editor writes triggers one re-analysis.
func forwardEvents(ctx context.Context, w *fsnotify.Watcher, p *tea.Program) {
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, discover.Extension) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(200*time.Millisecond, func() {
				p.Send(changedMsg{})
			})
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

type changedMsg struct{}

type resultMsg struct {
	diags []lint.Diagnostic
	files int
	err   error
}

type model struct {
	cfg      Config
	viewport viewport.Model
	ready    bool
	running  bool
	lastRun  time.Time
	files    int
	diags    []lint.Diagnostic
	err      error

	titleStyle  lipgloss.Style
	statusStyle lipgloss.Style
	codeStyle   lipgloss.Style
	helpStyle   lipgloss.Style
}

func newModel(cfg Config) model {
	return model{
		cfg:         cfg,
		titleStyle:  lipgloss.NewStyle().Bold(true).Padding(0, 1),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1),
		codeStyle:   lipgloss.NewStyle().Bold(true),
		helpStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
	}
}

func (m model) Init() tea.Cmd {
	return m.analyze()
}

func (m model) analyze() tea.Cmd {
	cfg := m.cfg
	return func() tea.Msg {
		files, err := discover.Discover(cfg.Paths, discover.Options{Exclude: cfg.Exclude})
		if err != nil {
			return resultMsg{err: err}
		}
		res, err := cfg.Engine.Run(context.Background(), files)
		if err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{diags: res.Diagnostics, files: res.Files}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.running {
				m.running = true
				return m, m.analyze()
			}
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderDiagnostics())

	case changedMsg:
		if !m.running {
			m.running = true
			return m, m.analyze()
		}

	case resultMsg:
		m.running = false
		m.lastRun = time.Now()
		m.err = msg.err
		if msg.err == nil {
			m.diags = msg.diags
			m.files = msg.files
		}
		if m.ready {
			m.viewport.SetContent(m.renderDiagnostics())
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) renderDiagnostics() string {
	if m.err != nil {
		return "error: " + m.err.Error()
	}
	if len(m.diags) == 0 {
		return "No issues found."
	}
	var b strings.Builder
	for _, d := range m.diags {
		fmt.Fprintf(&b, "%s:%d:%d: %s %s\n",
			d.File, d.Line, d.Col, m.codeStyle.Render(d.RuleID), d.Message)
	}
	return b.String()
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}
	status := fmt.Sprintf("%d file(s), %d issue(s)", m.files, len(m.diags))
	if m.running {
		status = "analyzing..."
	} else if !m.lastRun.IsZero() {
		status += "  last run " + m.lastRun.Format("15:04:05")
	}
	return m.titleStyle.Render("reap watch") + "\n" +
		m.statusStyle.Render(status) + "\n" +
		m.viewport.View() + "\n" +
		m.helpStyle.Render("r re-run · j/k scroll · q quit")
}

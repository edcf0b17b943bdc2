package tui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcin-skalski/status-ticker/internal/daemon"
	"github.com/marcin-skalski/status-ticker/internal/marquee"
)

// Refresher is the part of the daemon the bar talks back to.
type Refresher interface {
	RequestRefresh() bool
	Close()
}

// Opener launches a link target, normally in the browser.
type Opener func(url string) error

const hintText = "Esc/Ctrl+Q to close • r to refresh"

type Model struct {
	strip     *marquee.Marquee
	refresher Refresher
	open      Opener
	styles    Styles
	logger    *slog.Logger

	frameInterval time.Duration
	status        string
	width         int
	hover         int // index into strip.Items(), -1 = none
	closing       bool
}

type frameMsg time.Time

func NewModel(strip *marquee.Marquee, refresher Refresher, open Opener, styles Styles, frameInterval time.Duration, logger *slog.Logger) Model {
	return Model{
		strip:         strip,
		refresher:     refresher,
		open:          open,
		styles:        styles,
		logger:        logger.With("component", "tui"),
		frameInterval: frameInterval,
		status:        "Starting…",
		hover:         -1,
	}
}

func (m Model) Init() tea.Cmd {
	return frameCmd(m.frameInterval)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.strip.Resize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+q", "ctrl+c":
			m.closing = true
			m.refresher.Close()
			return m, tea.Quit
		case "r":
			if m.refresher.RequestRefresh() {
				m.status = "Manual refresh requested…"
			}
		}
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case daemon.StatusMsg:
		if !m.closing {
			m.status = msg.Text
		}
		return m, nil

	case daemon.RefreshedMsg:
		// Nothing on screen yet: show the first pass without waiting for a
		// loop boundary.
		if m.strip.ApplyIfEmpty() {
			m.hover = -1
		}
		return m, nil

	case frameMsg:
		if m.closing {
			return m, nil
		}
		if m.strip.Tick() {
			m.hover = -1
		} else if m.hover >= 0 {
			m.hover = m.hoverStillValid()
		}
		return m, frameCmd(m.frameInterval)
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	if msg.Y != 0 {
		m.hover = -1
		return m
	}

	switch {
	case msg.Action == tea.MouseActionMotion:
		m.hover = m.linkedIndexAt(msg.X)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		i := m.linkedIndexAt(msg.X)
		if i < 0 {
			return m
		}
		url := m.strip.Items()[i].Segment.URL
		if err := m.open(url); err != nil {
			m.logger.Warn("failed to open link", "url", url, "err", err)
		}
	}
	return m
}

// linkedIndexAt returns the clickable segment under col, or -1.
func (m Model) linkedIndexAt(col int) int {
	i := m.strip.ItemIndexAt(col)
	if i < 0 {
		return -1
	}
	it := m.strip.Items()[i]
	if it.Kind != marquee.KindSegment || !it.Segment.Linked() {
		return -1
	}
	return i
}

// hoverStillValid drops the hover once its item has scrolled off screen.
func (m Model) hoverStillValid() int {
	items := m.strip.Items()
	if m.hover >= len(items) || items[m.hover].Right() < 0 {
		return -1
	}
	return m.hover
}

func (m Model) View() string {
	if m.closing {
		return ""
	}
	return renderView(m)
}

func frameCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

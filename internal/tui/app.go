// Package tui is the interactive dashboard wrapping the update engine:
// it runs orchestration passes on a background goroutine, shows live
// progress from the event stream, and browses the JSON run history.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/config"
	"github.com/nsynca/nsynca/internal/history"
	"github.com/nsynca/nsynca/internal/sync"
)

type screen int

const (
	screenMenu screen = iota
	screenRunning
	screenDone
	screenHistory
)

const maxFeedLines = 12

// actionItem is one runnable entry in the menu.
type actionItem struct {
	kind  sync.Kind
	title string
	desc  string
}

func (a actionItem) Title() string       { return a.title }
func (a actionItem) Description() string { return a.desc }
func (a actionItem) FilterValue() string { return a.title }

// Model is the dashboard's bubbletea model.
type Model struct {
	cfg *config.Config
	log *zap.Logger

	screen screen
	width  int
	height int

	menu    list.Model
	spin    spinner.Model
	runner  *runner
	running sync.Kind

	status string
	feed   []string

	record  history.RunRecord
	runErr  error
	histErr error

	historyView historyView
}

// New builds the dashboard model.
func New(cfg *config.Config, log *zap.Logger) Model {
	items := []list.Item{
		actionItem{kind: sync.KindAll, title: "Run all updaters", desc: "deployments, tasks and services in order"},
		actionItem{kind: sync.KindDeployment, title: "Update deployments", desc: "latest deploys and release counts per project"},
		actionItem{kind: sync.KindTask, title: "Update tasks", desc: "task completion counts per project"},
		actionItem{kind: sync.KindService, title: "Update services", desc: "billing status and next due dates"},
		actionItem{kind: sync.KindCharge, title: "Create missing charges", desc: "backfill recurring charges from billing history"},
	}

	menu := list.New(items, list.NewDefaultDelegate(), 60, 16)
	menu.Title = "nsynca — workspace sync"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	menu.Styles.Title = titleStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		cfg:         cfg,
		log:         log,
		screen:      screenMenu,
		menu:        menu,
		spin:        sp,
		runner:      newRunner(cfg, log),
		historyView: newHistoryView(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.menu.SetSize(maxInt(40, msg.Width-4), maxInt(10, msg.Height-6))
		m.historyView.setSize(msg.Width, msg.Height)
		return m, nil

	case eventMsg:
		m.applyEvent(msg.event)
		return m, m.runner.wait()

	case doneMsg:
		m.screen = screenDone
		m.record = msg.record
		m.runErr = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.delegate(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenMenu:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "h":
			return m.openHistory()
		case "enter":
			if it, ok := m.menu.SelectedItem().(actionItem); ok {
				return m.startRun(it.kind)
			}
			return m, nil
		}
	case screenRunning:
		// No cancellation mid-run; only the process can be killed.
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	case screenDone:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "h":
			return m.openHistory()
		case "esc", "enter":
			m.screen = screenMenu
			return m, nil
		}
	case screenHistory:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		done, cmd := m.historyView.handleKey(msg)
		if done {
			m.screen = screenMenu
		}
		return m, cmd
	}
	return m.delegate(msg)
}

func (m Model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenMenu:
		m.menu, cmd = m.menu.Update(msg)
	case screenHistory:
		cmd = m.historyView.update(msg)
	}
	return m, cmd
}

func (m Model) startRun(kind sync.Kind) (tea.Model, tea.Cmd) {
	if err := m.cfg.Validate([]sync.Kind{kind}); err != nil {
		m.screen = screenDone
		m.runErr = err
		m.record = history.RunRecord{}
		return m, nil
	}
	m.screen = screenRunning
	m.running = kind
	m.status = "Initializing..."
	m.feed = nil
	return m, tea.Batch(m.spin.Tick, m.runner.start(kind))
}

func (m Model) openHistory() (tea.Model, tea.Cmd) {
	records, err := history.Load(m.cfg.HistoryDir)
	m.histErr = err
	m.historyView.setRecords(records)
	m.screen = screenHistory
	return m, nil
}

func (m *Model) applyEvent(e sync.Event) {
	switch e.Kind {
	case sync.EventStatus:
		m.status = e.Message
	case sync.EventProjectUpdate, sync.EventServiceUpdate:
		m.pushFeed(fmt.Sprintf("updated %s", e.Entity))
	case sync.EventChargeCreated:
		m.pushFeed(fmt.Sprintf("created charge %s", e.Entity))
	case sync.EventComplete:
		m.status = e.Message
	}
}

func (m *Model) pushFeed(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > maxFeedLines {
		m.feed = m.feed[len(m.feed)-maxFeedLines:]
	}
}

func (m Model) View() string {
	switch m.screen {
	case screenMenu:
		return m.menu.View() + helpStyle.Render("enter: run  •  h: history  •  q: quit")
	case screenRunning:
		return m.runningView()
	case screenDone:
		return m.doneView()
	case screenHistory:
		return m.historyView.view(m.histErr)
	}
	return ""
}

func (m Model) runningView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Running %s update", m.running)))
	b.WriteString("\n\n")
	b.WriteString(m.spin.View())
	b.WriteString(" ")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n\n")
	for _, line := range m.feed {
		b.WriteString(feedStyle.Render(wordwrap.String(line, maxInt(20, m.width-6))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) doneView() string {
	var b strings.Builder
	if m.runErr != nil {
		b.WriteString(errorStyle.Render("Run failed"))
		b.WriteString("\n\n")
		b.WriteString(wordwrap.String(m.runErr.Error(), maxInt(20, m.width-4)))
	} else {
		b.WriteString(successStyle.Render("Run complete"))
		b.WriteString("\n\n")
		b.WriteString(renderRecord(m.record, maxInt(20, m.width-4)))
	}
	b.WriteString(helpStyle.Render("\nenter: menu  •  h: history  •  q: quit"))
	return b.String()
}

// renderRecord formats a run record for display, projects first, then
// services and created charges.
func renderRecord(rec history.RunRecord, width int) string {
	projects, services := history.SplitEntities(rec)

	var b strings.Builder
	fmt.Fprintf(&b, "%s run at %s — %s\n",
		rec.Type, rec.Timestamp.Format("2006-01-02 15:04"), rec.Status)

	writeSection := func(header string, entities map[string]history.Updates) {
		if len(entities) == 0 {
			return
		}
		b.WriteString("\n" + lipgloss.NewStyle().Bold(true).Render(header) + "\n")
		for _, name := range sortedKeys(entities) {
			line := fmt.Sprintf("  %s: %s", name, formatUpdates(entities[name]))
			b.WriteString(wordwrap.String(line, width) + "\n")
		}
	}

	writeSection(fmt.Sprintf("Projects (%d)", len(projects)), projects)
	writeSection(fmt.Sprintf("Services (%d)", len(services)), services)
	writeSection(fmt.Sprintf("Charges created (%d)", len(rec.ChargesCreated)), rec.ChargesCreated)

	if len(projects) == 0 && len(services) == 0 && len(rec.ChargesCreated) == 0 {
		b.WriteString("\nNo records were updated.\n")
	}
	return b.String()
}

func formatUpdates(updates history.Updates) string {
	parts := make([]string, 0, len(updates))
	for _, key := range sortedKeys(updates) {
		parts = append(parts, fmt.Sprintf("%s=%v", key, updates[key]))
	}
	return strings.Join(parts, ", ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

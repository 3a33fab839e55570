package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nsynca/nsynca/internal/history"
)

// historyItem is one run record in the history list.
type historyItem struct {
	record history.RunRecord
}

func (h historyItem) Title() string {
	return fmt.Sprintf("%s — %s", h.record.Timestamp.Format("2006-01-02 15:04"), h.record.Type)
}

func (h historyItem) Description() string {
	projects, services := history.SplitEntities(h.record)
	return fmt.Sprintf("%s · %d projects, %d services, %d charges",
		h.record.Status, len(projects), len(services), len(h.record.ChargesCreated))
}

func (h historyItem) FilterValue() string { return h.Title() }

// historyView browses past runs: a list of records, with a viewport
// detail for the selected one.
type historyView struct {
	list    list.Model
	detail  viewport.Model
	showing bool
	width   int
	height  int
}

func newHistoryView() historyView {
	l := list.New(nil, list.NewDefaultDelegate(), 60, 16)
	l.Title = "Run history"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle

	return historyView{
		list:   l,
		detail: viewport.New(60, 16),
	}
}

func (h *historyView) setSize(width, height int) {
	h.width, h.height = width, height
	h.list.SetSize(maxInt(40, width-4), maxInt(10, height-6))
	h.detail.Width = maxInt(40, width-4)
	h.detail.Height = maxInt(10, height-6)
}

func (h *historyView) setRecords(records []history.RunRecord) {
	items := make([]list.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{record: rec})
	}
	h.list.SetItems(items)
	h.showing = false
}

// handleKey processes a key press. The first return is true when the
// view should close.
func (h *historyView) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		if h.showing {
			h.showing = false
			return false, nil
		}
		return true, nil
	case "enter":
		if h.showing {
			return false, nil
		}
		if it, ok := h.list.SelectedItem().(historyItem); ok {
			h.detail.SetContent(renderRecord(it.record, maxInt(20, h.width-6)))
			h.detail.GotoTop()
			h.showing = true
		}
		return false, nil
	}
	return false, h.update(msg)
}

func (h *historyView) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if h.showing {
		h.detail, cmd = h.detail.Update(msg)
	} else {
		h.list, cmd = h.list.Update(msg)
	}
	return cmd
}

func (h *historyView) view(loadErr error) string {
	if loadErr != nil {
		return errorStyle.Render("Failed to load history") + "\n\n" + loadErr.Error() +
			helpStyle.Render("\nesc: back")
	}
	if h.showing {
		return h.detail.View() + helpStyle.Render("\n↑/↓: scroll  •  esc: back")
	}
	return h.list.View() + helpStyle.Render("enter: details  •  esc: back")
}

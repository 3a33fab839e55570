package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/config"
	"github.com/nsynca/nsynca/internal/history"
	"github.com/nsynca/nsynca/internal/notion"
	"github.com/nsynca/nsynca/internal/sync"
)

// eventMsg wraps one orchestration event for the UI loop.
type eventMsg struct {
	event sync.Event
}

// doneMsg reports the finished run and its persisted record.
type doneMsg struct {
	record history.RunRecord
	err    error
}

// runner executes one orchestration pass on a background goroutine and
// feeds the UI through a buffered message channel. The UI drains it one
// message per tea.Cmd; there is no shared mutable state beyond the
// channel.
type runner struct {
	cfg  *config.Config
	log  *zap.Logger
	msgs chan tea.Msg
}

func newRunner(cfg *config.Config, log *zap.Logger) *runner {
	return &runner{cfg: cfg, log: log}
}

// start launches a run of the given kind and returns the command that
// waits for its first message.
func (r *runner) start(kind sync.Kind) tea.Cmd {
	r.msgs = make(chan tea.Msg, 64)
	go r.execute(kind)
	return r.wait()
}

// wait blocks for the next message from the background run.
func (r *runner) wait() tea.Cmd {
	ch := r.msgs
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (r *runner) execute(kind sync.Kind) {
	defer close(r.msgs)

	recorder := history.NewRecorder(r.cfg.HistoryDir)
	recorder.StartRun(string(kind))

	sink := sync.SinkFunc(func(e sync.Event) {
		recorder.Publish(e)
		r.msgs <- eventMsg{event: e}
	})

	store := notion.NewClient(r.cfg.NotionToken,
		notion.WithBaseURL(r.cfg.BaseURL),
		notion.WithLogger(r.log),
	)
	orc := sync.NewOrchestrator(
		sync.Deps{Store: store, Log: r.log, Sink: sink},
		r.cfg.Databases(),
	)

	err := orc.Run(context.Background(), []sync.Kind{kind}, false)

	// The record is written regardless of run outcome.
	record, saveErr := recorder.FinishRun(err == nil)
	if saveErr != nil {
		r.log.Error("failed to save run record", zap.Error(saveErr))
	}
	r.msgs <- doneMsg{record: record, err: err}
}

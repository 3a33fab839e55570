package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/models"
	"github.com/nsynca/nsynca/internal/notion"
)

// Kind names one updater family, or the "all" convenience set.
type Kind string

const (
	KindDeployment Kind = "deployment"
	KindTask       Kind = "task"
	KindService    Kind = "service"
	KindCharge     Kind = "charge"
	KindAll        Kind = "all"
)

// ParseKind validates an updater kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDeployment, KindTask, KindService, KindCharge, KindAll:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown updater kind %q", s)
}

// Stats summarizes one updater run. Failed counts per-record failures
// that were isolated and skipped; they never abort the run.
type Stats struct {
	Processed int
	Updated   int
	Created   int
	Failed    int
}

// Updater is the contract every entity-family updater implements. Run
// returns an error only when its top-level fetch fails; per-record
// failures are logged, counted in Stats, and skipped.
type Updater interface {
	Name() string
	Run(ctx context.Context) (Stats, error)
}

// Deps bundles the collaborators shared by all updaters.
type Deps struct {
	Store notion.Store
	Log   *zap.Logger
	Sink  Sink
}

func (d Deps) normalize() Deps {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return d
}

// pages provides the fetch-title / apply-or-skip plumbing common to the
// updaters, composed rather than inherited.
type pages struct {
	store notion.Store
	log   *zap.Logger
	sink  Sink
	today func() time.Time
}

func newPages(d Deps) pages {
	d = d.normalize()
	return pages{store: d.Store, log: d.Log, sink: d.Sink, today: models.Today}
}

func (p *pages) publish(e Event) {
	if p.sink != nil {
		p.sink.Publish(e)
	}
}

func (p *pages) status(text string) {
	p.publish(Event{Kind: EventStatus, Message: text})
}

// pageTitle fetches a page and returns its display title.
func (p *pages) pageTitle(ctx context.Context, pageID string) (string, error) {
	page, err := p.store.GetPage(ctx, pageID)
	if err != nil {
		return "", err
	}
	return notion.ExtractTitle(page), nil
}

// applyUpdates writes a payload to one page, skipping empty payloads as
// a safe no-op. On success the corresponding update event is published
// before returning.
func (p *pages) applyUpdates(ctx context.Context, kind EventKind, pageID, name string, updates notion.Properties) error {
	if len(updates) == 0 {
		p.log.Debug("no updates needed", zap.String("page_id", pageID))
		return nil
	}
	if _, err := p.store.UpdatePage(ctx, pageID, updates); err != nil {
		return err
	}
	p.log.Info("updated page", zap.String("name", name), zap.String("page_id", pageID))
	p.publish(Event{Kind: kind, Entity: name, Updates: notion.Flatten(updates)})
	return nil
}

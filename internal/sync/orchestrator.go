package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Databases holds the container identifiers the updaters operate on.
// Services is optional; when empty the service and charge updaters are
// unavailable.
type Databases struct {
	Deployments string
	Tasks       string
	Services    string
}

// Orchestrator selects and runs updaters for a requested set of kinds.
// Updaters run sequentially in a fixed order; one updater's failure is
// logged and does not stop the others.
type Orchestrator struct {
	updaters map[Kind]Updater
	log      *zap.Logger
	sink     Sink
}

// allKinds is the ordered set the "all" wildcard resolves to. Charge is
// deliberately not part of it: charge runs create new rows rather than
// refresh summary fields, so they stay opt-in.
var allKinds = []Kind{KindDeployment, KindTask, KindService}

// NewOrchestrator wires one updater per entity family from the shared
// dependencies. Service-family updaters are registered only when a
// services database id is configured.
func NewOrchestrator(deps Deps, dbs Databases) *Orchestrator {
	deps = deps.normalize()
	updaters := map[Kind]Updater{
		KindDeployment: NewDeploymentUpdater(deps, dbs.Deployments),
		KindTask:       NewTaskUpdater(deps, dbs.Tasks),
	}
	if dbs.Services != "" {
		updaters[KindService] = NewServiceUpdater(deps, dbs.Services)
		updaters[KindCharge] = NewChargeUpdater(deps, dbs.Services)
	}
	return &Orchestrator{
		updaters: updaters,
		log:      deps.Log,
		sink:     deps.Sink,
	}
}

// Run executes the updaters for the requested kinds in order. An empty
// request or one containing "all" resolves to the full convenience set.
// The parallel flag is accepted for interface compatibility but has no
// distinct behavior; execution is always sequential.
//
// The event stream terminates with exactly one complete event. The
// returned error is non-nil only for an unsatisfiable request; updater
// failures are logged and reflected in the complete event's message,
// not in the error.
func (o *Orchestrator) Run(ctx context.Context, kinds []Kind, parallel bool) error {
	o.log.Info("starting update orchestration")

	selected, err := o.resolve(kinds)
	if err != nil {
		o.complete(err)
		return err
	}

	if parallel {
		o.log.Warn("parallel execution is not implemented; running sequentially")
	}

	failed := 0
	for _, u := range selected {
		o.publish(Event{Kind: EventStatus, Message: fmt.Sprintf("Running %s updater...", u.Name())})
		stats, err := u.Run(ctx)
		if err != nil {
			failed++
			o.log.Error("updater failed", zap.String("updater", u.Name()), zap.Error(err))
			continue
		}
		o.log.Info("updater finished",
			zap.String("updater", u.Name()),
			zap.Int("processed", stats.Processed),
			zap.Int("updated", stats.Updated),
			zap.Int("created", stats.Created),
			zap.Int("failed", stats.Failed))
	}

	o.log.Info("update orchestration complete", zap.Int("updaters_failed", failed))
	if failed > 0 {
		o.publish(Event{
			Kind:    EventComplete,
			Message: fmt.Sprintf("completed with %d updater failure(s)", failed),
		})
	} else {
		o.complete(nil)
	}
	return nil
}

// resolve maps requested kinds to concrete updaters, deduplicated, in
// the fixed execution order.
func (o *Orchestrator) resolve(kinds []Kind) ([]Updater, error) {
	requested := kinds
	if len(requested) == 0 {
		requested = []Kind{KindAll}
	}

	var order []Kind
	seen := make(map[Kind]bool)
	add := func(k Kind) {
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	for _, k := range requested {
		if k == KindAll {
			for _, ak := range allKinds {
				add(ak)
			}
			continue
		}
		add(k)
	}

	var selected []Updater
	for _, k := range order {
		u, ok := o.updaters[k]
		if !ok {
			if k == KindService || k == KindCharge {
				// "all" tolerates a missing services database; an
				// explicit request does not.
				if containsKind(kinds, k) {
					return nil, fmt.Errorf("updater %q requires a services database id", k)
				}
				o.log.Warn("skipping updater: no services database configured", zap.String("updater", string(k)))
				continue
			}
			return nil, fmt.Errorf("no updater registered for kind %q", k)
		}
		selected = append(selected, u)
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no runnable updaters for request %v", requested)
	}
	return selected, nil
}

func (o *Orchestrator) publish(e Event) {
	if o.sink != nil {
		o.sink.Publish(e)
	}
}

func (o *Orchestrator) complete(err error) {
	if err != nil {
		o.publish(Event{Kind: EventComplete, Message: err.Error(), Err: err})
		return
	}
	o.publish(Event{Kind: EventComplete, Message: "success"})
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// Package history tracks orchestration runs and persists them to
// monthly JSON files, one append per finished run.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nsynca/nsynca/internal/sync"
)

// Run statuses.
const (
	StatusPending = "pending"
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Updates is the flat key/value form of one entity's applied changes.
type Updates map[string]any

// RunRecord is one orchestration run as stored in the history log.
type RunRecord struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Type            string             `json:"type"`
	Status          string             `json:"status"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	ProjectsUpdated map[string]Updates `json:"projects_updated"`
	ServicesUpdated map[string]Updates `json:"services_updated,omitempty"`
	ChargesCreated  map[string]Updates `json:"charges_created,omitempty"`
}

// Recorder accumulates one run at a time and appends finished runs to
// the history directory. It implements sync.Sink so it can be wired
// straight into the orchestrator's event stream.
type Recorder struct {
	dir     string
	current RunRecord
	now     func() time.Time
}

// NewRecorder creates a recorder writing under dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{
		dir:     dir,
		current: RunRecord{Status: StatusPending},
		now:     time.Now,
	}
}

// StartRun begins tracking a new run of the given type.
func (r *Recorder) StartRun(runType string) {
	r.current = RunRecord{
		ID:              uuid.NewString(),
		Timestamp:       r.now(),
		Type:            runType,
		Status:          StatusRunning,
		ProjectsUpdated: make(map[string]Updates),
		ServicesUpdated: make(map[string]Updates),
		ChargesCreated:  make(map[string]Updates),
	}
}

// Publish routes orchestration events into the current run.
func (r *Recorder) Publish(e sync.Event) {
	switch e.Kind {
	case sync.EventProjectUpdate:
		r.AddProjectUpdate(e.Entity, e.Updates)
	case sync.EventServiceUpdate:
		r.AddServiceUpdate(e.Entity, e.Updates)
	case sync.EventChargeCreated:
		r.AddChargeCreated(e.Entity, e.Updates)
	}
}

// AddProjectUpdate records one project's applied updates, merged with
// any updates an earlier updater already recorded for it in this run.
func (r *Recorder) AddProjectUpdate(name string, updates map[string]any) {
	if r.current.ProjectsUpdated == nil {
		return
	}
	clean := cleanProjectUpdates(updates)
	if existing, ok := r.current.ProjectsUpdated[name]; ok {
		for k, v := range clean {
			existing[k] = v
		}
		return
	}
	r.current.ProjectsUpdated[name] = clean
}

// AddServiceUpdate records one service's applied updates.
func (r *Recorder) AddServiceUpdate(name string, updates map[string]any) {
	if r.current.ServicesUpdated == nil {
		return
	}
	r.current.ServicesUpdated[name] = Updates(updates)
}

// AddChargeCreated records one synthesized charge.
func (r *Recorder) AddChargeCreated(name string, updates map[string]any) {
	if r.current.ChargesCreated == nil {
		return
	}
	r.current.ChargesCreated[name] = Updates(updates)
}

// FinishRun closes the current run and appends it to this month's
// history file. A record is written whether or not the run succeeded.
func (r *Recorder) FinishRun(success bool) (RunRecord, error) {
	r.current.Status = StatusSuccess
	if !success {
		r.current.Status = StatusFailed
	}
	completed := r.now()
	r.current.CompletedAt = &completed

	err := r.append(r.current)
	return r.current, err
}

func (r *Recorder) append(rec RunRecord) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("update_history_%s.json", r.now().Format("200601")))

	var records []RunRecord
	if data, err := os.ReadFile(path); err == nil {
		// A corrupt file is replaced rather than blocking the append.
		_ = json.Unmarshal(data, &records)
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write history file %s: %w", path, err)
	}
	return nil
}

// Load reads every monthly history file under dir and returns all runs
// newest-first.
func Load(dir string) ([]RunRecord, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "update_history_*.json"))
	if err != nil {
		return nil, err
	}
	var all []RunRecord
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read history file %s: %w", path, err)
		}
		var records []RunRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("parse history file %s: %w", path, err)
		}
		all = append(all, records...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	return all, nil
}

// projectKeys identify update entries that belong to project rows when
// re-separating mixed "all"-run data.
var projectKeys = []string{
	"Last Dev", "Last Prod", "Dev Releases", "Prod Releases",
	"Total Tasks", "Completed Tasks",
}

// SplitEntities separates a record's entries into project and service
// buckets. Older "all" runs stored both under projects; entries without
// any project-shaped key are reassigned to services.
func SplitEntities(rec RunRecord) (projects, services map[string]Updates) {
	if rec.Type != string(sync.KindAll) {
		return rec.ProjectsUpdated, rec.ServicesUpdated
	}

	projects = make(map[string]Updates)
	services = make(map[string]Updates)
	for name, updates := range rec.ProjectsUpdated {
		if hasProjectKey(updates) {
			projects[name] = updates
		} else {
			services[name] = updates
		}
	}
	for name, updates := range rec.ServicesUpdated {
		services[name] = updates
	}
	return projects, services
}

func hasProjectKey(updates Updates) bool {
	for _, key := range projectKeys {
		if _, ok := updates[key]; ok {
			return true
		}
	}
	return false
}

// cleanProjectUpdates reshapes a flattened project payload for display:
// version and deploy date collapse into one "Last Dev"/"Last Prod"
// entry, release counters lose their "Nb" prefix, and task counts pass
// through.
func cleanProjectUpdates(updates map[string]any) Updates {
	clean := make(Updates)
	for key, value := range updates {
		switch key {
		case "Last Dev Version":
			if v, ok := value.(string); ok && v != "" {
				clean["Last Dev"] = fmt.Sprintf("%s @ %s", v, stringOr(updates["Last Dev Deploy"], "N/A"))
			}
		case "Last Prod Version":
			if v, ok := value.(string); ok && v != "" {
				clean["Last Prod"] = fmt.Sprintf("%s @ %s", v, stringOr(updates["Last Prod Deploy"], "N/A"))
			}
		case "Nb Dev Releases":
			clean["Dev Releases"] = value
		case "Nb Prod Releases":
			clean["Prod Releases"] = value
		case "Total Tasks", "Completed Tasks":
			clean[key] = value
		case "Last Dev Deploy", "Last Prod Deploy":
			// folded into the version entries above
		}
	}
	return clean
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

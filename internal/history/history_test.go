package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsynca/nsynca/internal/sync"
)

func fixedClock(iso string) func() time.Time {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func TestRecorder_FullRunLifecycle(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)
	r.now = fixedClock("2024-04-10T09:00:00Z")

	r.StartRun("all")
	r.Publish(sync.Event{Kind: sync.EventProjectUpdate, Entity: "Alpha", Updates: map[string]any{
		"Last Dev Version": "v1.1",
		"Last Dev Deploy":  "2024-02-01",
		"Nb Dev Releases":  float64(2),
		"Nb Prod Releases": float64(0),
	}})
	r.Publish(sync.Event{Kind: sync.EventServiceUpdate, Entity: "OpenAI", Updates: map[string]any{
		"Status": "Active",
	}})
	r.Publish(sync.Event{Kind: sync.EventChargeCreated, Entity: "OpenAI Feb24", Updates: map[string]any{
		"Price": float64(20),
	}})
	r.Publish(sync.Event{Kind: sync.EventStatus, Message: "progress text is not recorded"})

	rec, err := r.FinishRun(true)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "all", rec.Type)
	assert.Equal(t, StatusSuccess, rec.Status)
	require.NotNil(t, rec.CompletedAt)

	require.Contains(t, rec.ProjectsUpdated, "Alpha")
	assert.Equal(t, "v1.1 @ 2024-02-01", rec.ProjectsUpdated["Alpha"]["Last Dev"])
	assert.Equal(t, float64(2), rec.ProjectsUpdated["Alpha"]["Dev Releases"])
	assert.NotContains(t, rec.ProjectsUpdated["Alpha"], "Last Dev Deploy", "deploy date folds into the version entry")

	assert.Equal(t, Updates{"Status": "Active"}, rec.ServicesUpdated["OpenAI"])
	assert.Equal(t, Updates{"Price": float64(20)}, rec.ChargesCreated["OpenAI Feb24"])

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, rec.ID, loaded[0].ID)
}

func TestRecorder_FailedRunStillWritten(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)
	r.now = fixedClock("2024-04-10T09:00:00Z")

	r.StartRun("deployment")
	rec, err := r.FinishRun(false)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, rec.Status)

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, StatusFailed, loaded[0].Status)
}

func TestRecorder_MergesUpdatesAcrossUpdaters(t *testing.T) {
	r := NewRecorder(t.TempDir())
	r.StartRun("all")

	r.AddProjectUpdate("Alpha", map[string]any{"Nb Dev Releases": float64(2)})
	r.AddProjectUpdate("Alpha", map[string]any{"Total Tasks": float64(5), "Completed Tasks": float64(3)})

	got := r.current.ProjectsUpdated["Alpha"]
	assert.Equal(t, float64(2), got["Dev Releases"])
	assert.Equal(t, float64(5), got["Total Tasks"])
	assert.Equal(t, float64(3), got["Completed Tasks"])
}

func TestRecorder_IgnoresEventsBeforeStart(t *testing.T) {
	r := NewRecorder(t.TempDir())
	r.AddProjectUpdate("Alpha", map[string]any{"Total Tasks": float64(1)})
	assert.Nil(t, r.current.ProjectsUpdated)
}

func TestRecorder_AppendsToMonthlyFile(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)
	r.now = fixedClock("2024-04-10T09:00:00Z")

	r.StartRun("task")
	_, err := r.FinishRun(true)
	require.NoError(t, err)
	r.StartRun("task")
	_, err = r.FinishRun(true)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "update_history_202404.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type": "task"`)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2, "both runs land in the same monthly file")
}

func TestRecorder_CorruptFileIsReplaced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "update_history_202404.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	r := NewRecorder(dir)
	r.now = fixedClock("2024-04-10T09:00:00Z")
	r.StartRun("task")
	_, err := r.FinishRun(true)
	require.NoError(t, err)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}

func TestLoad_SortsNewestFirstAcrossMonths(t *testing.T) {
	dir := t.TempDir()

	older := NewRecorder(dir)
	older.now = fixedClock("2024-03-05T10:00:00Z")
	older.StartRun("task")
	_, err := older.FinishRun(true)
	require.NoError(t, err)

	newer := NewRecorder(dir)
	newer.now = fixedClock("2024-04-10T09:00:00Z")
	newer.StartRun("deployment")
	_, err = newer.FinishRun(true)
	require.NoError(t, err)

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "deployment", loaded[0].Type)
	assert.Equal(t, "task", loaded[1].Type)
}

func TestLoad_EmptyDirectory(t *testing.T) {
	loaded, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSplitEntities_ReassignsServiceShapedEntries(t *testing.T) {
	rec := RunRecord{
		Type: "all",
		ProjectsUpdated: map[string]Updates{
			"Alpha":  {"Total Tasks": float64(5)},
			"OpenAI": {"Status": "Active", "Next Due Date": "2024-04-15"},
		},
		ServicesUpdated: map[string]Updates{
			"Hosting": {"Status": "Cancelled"},
		},
	}

	projects, services := SplitEntities(rec)
	assert.Contains(t, projects, "Alpha")
	assert.NotContains(t, projects, "OpenAI")
	assert.Contains(t, services, "OpenAI")
	assert.Contains(t, services, "Hosting")
}

func TestSplitEntities_SingleKindRunsPassThrough(t *testing.T) {
	rec := RunRecord{
		Type: "service",
		ProjectsUpdated: map[string]Updates{
			"odd entry": {"Status": "Active"},
		},
	}

	projects, services := SplitEntities(rec)
	assert.Contains(t, projects, "odd entry", "only mixed all runs are re-separated")
	assert.Empty(t, services)
}

func TestCleanProjectUpdates_MissingDeployDateFallsBack(t *testing.T) {
	clean := cleanProjectUpdates(map[string]any{"Last Prod Version": "v2.0"})
	assert.Equal(t, "v2.0 @ N/A", clean["Last Prod"])
}

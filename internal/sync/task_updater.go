package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nsynca/nsynca/internal/models"
	"github.com/nsynca/nsynca/internal/notion"
)

// relationProperty is the task property linking a task to its projects.
const relationProperty = "Project"

// TaskUpdater writes task completion counts onto project rows.
type TaskUpdater struct {
	pages
	databaseID string
}

// NewTaskUpdater builds a task updater over the given tasks database.
func NewTaskUpdater(deps Deps, databaseID string) *TaskUpdater {
	return &TaskUpdater{pages: newPages(deps), databaseID: databaseID}
}

func (u *TaskUpdater) Name() string { return string(KindTask) }

// Run fetches all tasks to discover which projects have any, then
// updates each such project with its task counts. Projects without
// tasks are never visited.
func (u *TaskUpdater) Run(ctx context.Context) (Stats, error) {
	u.log.Info("starting task updates")
	u.status("Fetching tasks...")

	raw, err := u.store.QueryDatabase(ctx, u.databaseID, nil)
	if err != nil {
		u.log.Error("failed to fetch tasks", zap.Error(err))
		return Stats{}, fmt.Errorf("fetch tasks: %w", err)
	}

	allTasks := models.NewTaskCollection(raw)
	projectIDs := allTasks.UniqueProjectIDs()
	u.log.Info("found tasked projects", zap.Int("projects", len(projectIDs)))

	var stats Stats
	for _, projectID := range projectIDs {
		stats.Processed++
		if err := u.processProject(ctx, projectID); err != nil {
			stats.Failed++
			u.log.Error("task update failed for project",
				zap.String("project_id", projectID), zap.Error(err))
			continue
		}
		stats.Updated++
	}

	u.log.Info("task updates complete",
		zap.Int("updated", stats.Updated), zap.Int("failed", stats.Failed))
	return stats, nil
}

func (u *TaskUpdater) processProject(ctx context.Context, projectID string) error {
	name, err := u.pageTitle(ctx, projectID)
	if err != nil {
		return err
	}

	tasks, err := u.fetchProjectTasks(ctx, projectID)
	if err != nil {
		return err
	}

	u.log.Info("task counts",
		zap.String("project", name),
		zap.Int("total", tasks.TotalCount()),
		zap.Int("completed", tasks.CountCompleted()))

	updates := models.PrepareTaskUpdates(tasks)
	return u.applyUpdates(ctx, EventProjectUpdate, projectID, name, updates)
}

// fetchProjectTasks queries the task rows related to one project using
// a relation-containment filter.
func (u *TaskUpdater) fetchProjectTasks(ctx context.Context, projectID string) (models.TaskCollection, error) {
	raw, err := u.store.QueryDatabase(ctx, u.databaseID, notion.RelationContains(relationProperty, projectID))
	if err != nil {
		return models.TaskCollection{}, fmt.Errorf("fetch tasks for project %s: %w", projectID, err)
	}
	return models.NewTaskCollection(raw), nil
}

package models

import "github.com/nsynca/nsynca/internal/notion"

// CompletedStatus is the status label that marks a task as done.
const CompletedStatus = "Prod Deployed"

// taskStatusKey carries a trailing space; that is the literal property
// name in the workspace schema.
const taskStatusKey = "Status "

// Target property names written back to project rows.
const (
	UpdateTotalTasks     = "Total Tasks"
	UpdateCompletedTasks = "Completed Tasks"
)

// Task is a typed view over one task row.
type Task struct {
	ID         string
	Title      string
	Status     string // "" when no status is set
	ProjectIDs []string
}

// NewTask builds a Task from a raw page, degrading missing fields to
// defaults.
func NewTask(pg notion.Page) Task {
	title := notion.ExtractTitle(&pg)
	return Task{
		ID:         pg.ID,
		Title:      title,
		Status:     pg.Prop(taskStatusKey).SelectName(),
		ProjectIDs: pg.Prop(propProject).RelationIDs(),
	}
}

// IsCompleted reports whether the task carries the completed status.
func (t Task) IsCompleted() bool {
	return t.Status == CompletedStatus
}

// hasProject reports whether the task relates to the given project.
func (t Task) hasProject(projectID string) bool {
	for _, id := range t.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// TaskCollection is an immutable snapshot of task rows.
type TaskCollection struct {
	Tasks []Task
}

// NewTaskCollection wraps raw pages into typed tasks, preserving fetch
// order.
func NewTaskCollection(pages []notion.Page) TaskCollection {
	tasks := make([]Task, 0, len(pages))
	for _, pg := range pages {
		tasks = append(tasks, NewTask(pg))
	}
	return TaskCollection{Tasks: tasks}
}

// TotalCount returns the number of tasks in the collection.
func (c TaskCollection) TotalCount() int {
	return len(c.Tasks)
}

// CountCompleted returns the number of tasks with the completed status.
func (c TaskCollection) CountCompleted() int {
	n := 0
	for _, t := range c.Tasks {
		if t.IsCompleted() {
			n++
		}
	}
	return n
}

// FilterByProject returns a new collection holding only tasks related
// to the given project. The source collection is untouched.
func (c TaskCollection) FilterByProject(projectID string) TaskCollection {
	var filtered []Task
	for _, t := range c.Tasks {
		if t.hasProject(projectID) {
			filtered = append(filtered, t)
		}
	}
	return TaskCollection{Tasks: filtered}
}

// UniqueProjectIDs returns the set of project ids referenced by any
// task, in first-seen order.
func (c TaskCollection) UniqueProjectIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, t := range c.Tasks {
		for _, id := range t.ProjectIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// PrepareTaskUpdates derives the project property payload from task
// counts. Both counts are always emitted; zero is a valid value.
func PrepareTaskUpdates(tasks TaskCollection) notion.Properties {
	return notion.Properties{
		UpdateTotalTasks:     notion.NumberProp(float64(tasks.TotalCount())),
		UpdateCompletedTasks: notion.NumberProp(float64(tasks.CountCompleted())),
	}
}

package models

import (
	"fmt"
	"time"
)

// Task represents a single todo item with an optional parent reference.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"task"`
	Completed bool      `json:"completed"`
	ParentID  *string   `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsChild reports whether the task is nested under a parent.
func (t Task) IsChild() bool {
	return t.ParentID != nil
}

// TaskView is a Task annotated for the list view: the number of direct
// children and the parent's text (empty for root tasks).
type TaskView struct {
	Task
	ChildCount int    `json:"child_count"`
	ParentText string `json:"parent_task"`
}

// HasChildren reports whether any task references this one as parent.
func (t TaskView) HasChildren() bool {
	return t.ChildCount > 0
}

// SubtaskLabel returns the badge text for a parent row ("1 subtask",
// "3 subtasks").
func (t TaskView) SubtaskLabel() string {
	if t.ChildCount == 1 {
		return "1 subtask"
	}
	return fmt.Sprintf("%d subtasks", t.ChildCount)
}

// Stats summarizes a task list for the stats bar.
type Stats struct {
	Total     int
	Pending   int
	Completed int
}

// StatsFor counts tasks by completion state.
func StatsFor(tasks []TaskView) Stats {
	s := Stats{Total: len(tasks)}
	for i := range tasks {
		if tasks[i].Completed {
			s.Completed++
		} else {
			s.Pending++
		}
	}
	return s
}

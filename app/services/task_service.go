package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/triangletodd/flasktasks/app/models"
	"github.com/triangletodd/flasktasks/app/storage"
)

// ErrEmptyText is returned when a task would be created or edited with text
// that is empty after trimming. It is the only validation rule in the app;
// everything else (toggling, editing or deleting a missing id) is a silent
// no-op.
var ErrEmptyText = errors.New("task text is empty")

// listQuery annotates every task with its direct child count and its
// parent's text, and orders the result for the list view: groups with a
// pending root first, newer groups before older ones, the root row before
// its children, and children sorted pending-first then newest-first.
const listQuery = `
	SELECT t.id, t.task, t.completed, t.parent_id, t.created_at, t.updated_at,
	       COUNT(c.id) AS child_count,
	       COALESCE(p.task, '') AS parent_task
	FROM todos t
	LEFT JOIN todos c ON c.parent_id = t.id
	LEFT JOIN todos p ON t.parent_id = p.id
	GROUP BY t.id
	ORDER BY
		COALESCE(p.completed, t.completed) ASC,
		COALESCE(p.created_at, t.created_at) DESC,
		COALESCE(t.parent_id, t.id),
		CASE WHEN t.parent_id IS NULL THEN 0 ELSE 1 END,
		t.completed ASC,
		t.created_at DESC`

// TaskService handles task-related operations.
type TaskService struct {
	db *storage.DB
}

// NewTaskService creates a new instance of TaskService.
func NewTaskService(db *storage.DB) *TaskService {
	return &TaskService{db: db}
}

// GetTasks retrieves all tasks annotated for the hierarchical list view.
func (s *TaskService) GetTasks(ctx context.Context) ([]models.TaskView, error) {
	rows, err := s.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.TaskView
	for rows.Next() {
		t, err := scanTaskView(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

// GetTaskByID retrieves a single task, or nil when the id does not exist.
func (s *TaskService) GetTaskByID(ctx context.Context, taskID string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, task, completed, parent_id, created_at, updated_at
		FROM todos WHERE id = ?`, taskID)

	var t models.Task
	err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.ParentID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a new pending task, optionally nested under a parent.
// The parent id is stored as given; it is not checked against existing
// tasks. Returns ErrEmptyText when the text is blank after trimming.
func (s *TaskService) CreateTask(ctx context.Context, text string, parentID *string) (*models.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if parentID != nil && strings.TrimSpace(*parentID) == "" {
		parentID = nil
	}

	id := uuid.New().String()
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, task, completed, parent_id, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?)`, id, text, parentID, now, now)
	if err != nil {
		return nil, err
	}

	return &models.Task{
		ID:        id,
		Text:      text,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ToggleTask flips the completion state of exactly one task. A missing id
// is a no-op.
func (s *TaskService) ToggleTask(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE todos SET completed = NOT completed, updated_at = ?
		WHERE id = ?`, time.Now(), taskID)
	return err
}

// ToggleTaskWithChildren reads the task's current completion state and sets
// its negation on the task and every direct child in one transaction. A
// missing id is a no-op. Only one level is cascaded.
func (s *TaskService) ToggleTaskWithChildren(ctx context.Context, taskID string) error {
	return s.db.Transaction(func(tx *sql.Tx) error {
		var completed bool
		err := tx.QueryRowContext(ctx,
			`SELECT completed FROM todos WHERE id = ?`, taskID).Scan(&completed)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE todos SET completed = ?, updated_at = ?
			WHERE id = ? OR parent_id = ?`, !completed, time.Now(), taskID, taskID)
		return err
	})
}

// EditTask replaces a task's text. Blank replacement text returns
// ErrEmptyText and leaves the task unchanged; a missing id is a no-op.
func (s *TaskService) EditTask(ctx context.Context, taskID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE todos SET task = ?, updated_at = ?
		WHERE id = ?`, text, time.Now(), taskID)
	return err
}

// DeleteTask removes a task together with its direct children. The cascade
// is a single explicit statement and reaches exactly one level, matching
// the depth the app ever produces. A missing id is a no-op.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM todos WHERE id = ? OR parent_id = ?`, taskID, taskID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTaskView(s scanner) (*models.TaskView, error) {
	var t models.TaskView
	err := s.Scan(&t.ID, &t.Text, &t.Completed, &t.ParentID,
		&t.CreatedAt, &t.UpdatedAt, &t.ChildCount, &t.ParentText)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

package local

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"todoshell/internal/service"
)

const taskColumns = `id, title, description, email`

func scanTasks(rows *sql.Rows) ([]service.Task, error) {
	defer rows.Close()
	var tasks []service.Task
	for rows.Next() {
		var t service.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Owner); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tasks: %w", err)
	}
	return tasks, nil
}

// List implements service.TaskStore.
func (b *Backend) List(ctx context.Context) ([]service.Task, error) {
	owner, err := b.owner(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE email = ? ORDER BY id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return scanTasks(rows)
}

// Insert implements service.TaskStore. Rows can only be created for the
// signed-in owner.
func (b *Backend) Insert(ctx context.Context, task service.NewTask) ([]service.Task, error) {
	owner, err := b.owner(ctx)
	if err != nil {
		return nil, err
	}
	if task.Owner != owner {
		return nil, &service.APIError{
			Status:  http.StatusForbidden,
			Message: `new row violates row-level security policy for table "tasks"`,
		}
	}
	rows, err := b.db.QueryContext(ctx,
		`INSERT INTO tasks (title, description, email) VALUES (?, ?, ?) RETURNING `+taskColumns,
		task.Title, task.Description, task.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return scanTasks(rows)
}

// Update implements service.TaskStore. Updating a task that does not exist or
// belongs to someone else returns no rows.
func (b *Backend) Update(ctx context.Context, id int64, patch service.TaskPatch) ([]service.Task, error) {
	owner, err := b.owner(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		`UPDATE tasks SET title = COALESCE(?, title), description = COALESCE(?, description)
		 WHERE id = ? AND email = ? RETURNING `+taskColumns,
		nullable(patch.Title), nullable(patch.Description), id, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return scanTasks(rows)
}

// Delete implements service.TaskStore. Deleting a missing task is not an error.
func (b *Backend) Delete(ctx context.Context, id int64) error {
	owner, err := b.owner(ctx)
	if err != nil {
		return err
	}
	if _, err := b.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND email = ?`, id, owner); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

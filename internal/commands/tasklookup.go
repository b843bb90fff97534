package commands

import (
	"context"
	"fmt"

	"todoshell/internal/service"
)

// findTask returns the task with id among the tasks visible to the session.
func findTask(ctx context.Context, svc service.Service, id int64) (service.Task, error) {
	tasks, err := svc.List(ctx)
	if err != nil {
		return service.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("task %w: %d", service.ErrNotFound, id)
}

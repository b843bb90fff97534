package supabase

import (
	"context"
	"strconv"

	"todoshell/internal/service"
)

const (
	returnRepresentation = "representation"
	returnMinimal        = "minimal"
)

// accessToken returns the bearer for table requests: the current access
// token, or empty when signed out.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	sess, err := c.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", nil
	}
	return sess.AccessToken, nil
}

// List implements service.TaskStore. Row-level security scopes the rows to
// the signed-in owner.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	call, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var tasks []service.Task
	if _, err := c.rest(call, tok).From(c.table).Select("*", "", false).ExecuteTo(&tasks); err != nil {
		return nil, call.restError(err)
	}
	return tasks, nil
}

// Insert implements service.TaskStore.
func (c *Client) Insert(ctx context.Context, task service.NewTask) ([]service.Task, error) {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	call, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var created []service.Task
	_, err = c.rest(call, tok).From(c.table).
		Insert(task, false, "", returnRepresentation, "").
		ExecuteTo(&created)
	if err != nil {
		return nil, call.restError(err)
	}
	return created, nil
}

// Update implements service.TaskStore.
func (c *Client) Update(ctx context.Context, id int64, patch service.TaskPatch) ([]service.Task, error) {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	call, cancel, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	var updated []service.Task
	_, err = c.rest(call, tok).From(c.table).
		Update(patch, returnRepresentation, "").
		Eq("id", strconv.FormatInt(id, 10)).
		ExecuteTo(&updated)
	if err != nil {
		return nil, call.restError(err)
	}
	return updated, nil
}

// Delete implements service.TaskStore.
func (c *Client) Delete(ctx context.Context, id int64) error {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	call, cancel, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	_, _, err = c.rest(call, tok).From(c.table).
		Delete(returnMinimal, "").
		Eq("id", strconv.FormatInt(id, 10)).
		Execute()
	if err != nil {
		return call.restError(err)
	}
	return nil
}

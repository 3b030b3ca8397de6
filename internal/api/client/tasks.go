package client

import (
	"context"
	"net/url"
	"strconv"

	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// TaskFilter narrows ListTasks. Zero values are omitted.
type TaskFilter struct {
	Status string
	Owner  string
	Limit  int
	Offset int
}

func (f TaskFilter) values() url.Values {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.Owner != "" {
		params.Set("owner", f.Owner)
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		params.Set("offset", strconv.Itoa(f.Offset))
	}
	return params
}

// taskRequest contains only the fields the API accepts on create.
type taskRequest struct {
	Name     string `json:"name"`
	Owner    string `json:"owner"`
	Keywords string `json:"keywords"`
}

// ListTasks returns tasks, newest first.
func (c *Client) ListTasks(ctx context.Context, f TaskFilter) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.get(ctx, withQuery("/api/v1/tasks", f.values()), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns a single task by ID.
func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	if err := c.get(ctx, "/api/v1/tasks/"+url.PathEscape(id), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask creates an active task. keywords is comma-separated.
func (c *Client) CreateTask(ctx context.Context, name, owner, keywords string) (*domain.Task, error) {
	var created domain.Task
	req := taskRequest{Name: name, Owner: owner, Keywords: keywords}
	if err := c.post(ctx, "/api/v1/tasks", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// PauseTask stops a task from being batched.
func (c *Client) PauseTask(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/tasks/"+url.PathEscape(id)+"/pause", nil, nil)
}

// ResumeTask returns a paused task to the batch.
func (c *Client) ResumeTask(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v1/tasks/"+url.PathEscape(id)+"/resume", nil, nil)
}

// DeleteTask deletes a task and its logs.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/tasks/"+url.PathEscape(id), nil)
}

// RunTask processes a task immediately and returns the log entry written.
func (c *Client) RunTask(ctx context.Context, id string) (*domain.MetricsLog, error) {
	var entry domain.MetricsLog
	if err := c.post(ctx, "/api/v1/tasks/"+url.PathEscape(id)+"/run", nil, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListLogs returns a task's metrics log history, newest first.
func (c *Client) ListLogs(ctx context.Context, id string, limit int) ([]domain.MetricsLog, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := withQuery("/api/v1/tasks/"+url.PathEscape(id)+"/logs", params)

	var logs []domain.MetricsLog
	if err := c.get(ctx, path, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

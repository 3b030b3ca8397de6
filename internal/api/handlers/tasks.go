package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/donaldgifford/keyword-tracker/internal/engine"
	"github.com/donaldgifford/keyword-tracker/internal/store"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// TaskRunner processes a single task on demand.
type TaskRunner interface {
	RunTask(ctx context.Context, taskID string) (*domain.MetricsLog, error)
}

// TasksHandler handles task CRUD, on-demand runs and log history.
type TasksHandler struct {
	store  store.Store
	runner TaskRunner
}

// NewTasksHandler creates a new TasksHandler.
func NewTasksHandler(s store.Store, runner TaskRunner) *TasksHandler {
	return &TasksHandler{store: s, runner: runner}
}

// TaskIDInput identifies a task by path.
type TaskIDInput struct {
	ID string `path:"id" doc:"Task UUID"`
}

// TaskOutput is a single task.
type TaskOutput struct {
	Body domain.Task
}

// ListTasksInput filters the task list.
type ListTasksInput struct {
	Status string `query:"status" enum:"active,paused" doc:"Filter by status"`
	Owner  string `query:"owner"                       doc:"Filter by owner"`
	Limit  int    `query:"limit"  minimum:"0" maximum:"500" doc:"Page size (default 50)"`
	Offset int    `query:"offset" minimum:"0"          doc:"Rows to skip"`
}

// ListTasksOutput is the task list, newest first.
type ListTasksOutput struct {
	Body []domain.Task
}

// List returns tasks, newest first.
func (h *TasksHandler) List(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
	q := &store.TaskQuery{Limit: input.Limit, Offset: input.Offset}
	if input.Status != "" {
		status := domain.TaskStatus(input.Status)
		q.Status = &status
	}
	if input.Owner != "" {
		q.Owner = &input.Owner
	}

	tasks, err := h.store.ListTasks(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing tasks: " + err.Error())
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return &ListTasksOutput{Body: tasks}, nil
}

// Get returns a single task.
func (h *TasksHandler) Get(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	t, err := h.getTask(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &TaskOutput{Body: *t}, nil
}

// CreateTaskInput is the request body for creating a task.
type CreateTaskInput struct {
	Body struct {
		Name     string `json:"name"     minLength:"1" doc:"Display name"                example:"Birthday cards"`
		Owner    string `json:"owner"    minLength:"1" doc:"Owning user"                 example:"alice"`
		Keywords string `json:"keywords" minLength:"1" doc:"Comma-separated keyword list" example:"happy birthday, birthday card"`
	}
}

// Create stores a new active task.
func (h *TasksHandler) Create(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
	t := &domain.Task{
		Name:     strings.TrimSpace(input.Body.Name),
		Owner:    strings.TrimSpace(input.Body.Owner),
		Keywords: strings.TrimSpace(input.Body.Keywords),
		Status:   domain.TaskActive,
	}

	var errs []error
	if t.Name == "" {
		errs = append(errs, &huma.ErrorDetail{Location: "body.name", Message: "must not be blank"})
	}
	if t.Owner == "" {
		errs = append(errs, &huma.ErrorDetail{Location: "body.owner", Message: "must not be blank"})
	}
	if len(t.KeywordList()) == 0 {
		errs = append(errs, &huma.ErrorDetail{Location: "body.keywords", Message: "must contain at least one keyword"})
	}
	if len(errs) > 0 {
		return nil, huma.Error422UnprocessableEntity("invalid task", errs...)
	}

	if err := h.store.CreateTask(ctx, t); err != nil {
		return nil, huma.Error500InternalServerError("creating task: " + err.Error())
	}
	return &TaskOutput{Body: *t}, nil
}

// TaskStatusOutput reports a task's new status.
type TaskStatusOutput struct {
	Body struct {
		ID     string            `json:"id"`
		Status domain.TaskStatus `json:"status" example:"paused"`
	}
}

// Pause stops a task from being picked up by batch runs.
func (h *TasksHandler) Pause(ctx context.Context, input *TaskIDInput) (*TaskStatusOutput, error) {
	return h.setStatus(ctx, input.ID, domain.TaskPaused)
}

// Resume returns a paused task to the batch.
func (h *TasksHandler) Resume(ctx context.Context, input *TaskIDInput) (*TaskStatusOutput, error) {
	return h.setStatus(ctx, input.ID, domain.TaskActive)
}

func (h *TasksHandler) setStatus(ctx context.Context, id string, status domain.TaskStatus) (*TaskStatusOutput, error) {
	if !validID(id) {
		return nil, taskNotFound()
	}
	if err := h.store.SetTaskStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, huma.Error500InternalServerError("setting task status: " + err.Error())
	}

	out := &TaskStatusOutput{}
	out.Body.ID = id
	out.Body.Status = status
	return out, nil
}

// Delete removes a task and its metrics logs.
func (h *TasksHandler) Delete(ctx context.Context, input *TaskIDInput) (*struct{}, error) {
	if !validID(input.ID) {
		return nil, taskNotFound()
	}
	if err := h.store.DeleteTask(ctx, input.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, huma.Error500InternalServerError("deleting task: " + err.Error())
	}
	return nil, nil
}

// RunTaskOutput is the metrics log written by an on-demand run.
type RunTaskOutput struct {
	Body domain.MetricsLog
}

// Run processes one task immediately, whatever its status.
func (h *TasksHandler) Run(ctx context.Context, input *TaskIDInput) (*RunTaskOutput, error) {
	if !validID(input.ID) {
		return nil, taskNotFound()
	}

	entry, err := h.runner.RunTask(ctx, input.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, taskNotFound()
	case errors.Is(err, engine.ErrNoKeywords):
		return nil, huma.Error422UnprocessableEntity("task has no keywords")
	case err != nil:
		return nil, huma.Error500InternalServerError("running task: " + err.Error())
	}
	return &RunTaskOutput{Body: *entry}, nil
}

// ListLogsInput selects a task's log history.
type ListLogsInput struct {
	ID    string `path:"id"     doc:"Task UUID"`
	Limit int    `query:"limit" minimum:"0" maximum:"500" doc:"Entries to return (default 30)"`
}

// ListLogsOutput is a task's metrics log history, newest first.
type ListLogsOutput struct {
	Body []domain.MetricsLog
}

// Logs returns a task's metrics log history.
func (h *TasksHandler) Logs(ctx context.Context, input *ListLogsInput) (*ListLogsOutput, error) {
	if _, err := h.getTask(ctx, input.ID); err != nil {
		return nil, err
	}

	logs, err := h.store.ListLogs(ctx, input.ID, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing logs: " + err.Error())
	}
	if logs == nil {
		logs = []domain.MetricsLog{}
	}
	return &ListLogsOutput{Body: logs}, nil
}

func (h *TasksHandler) getTask(ctx context.Context, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, taskNotFound()
	}
	t, err := h.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, huma.Error500InternalServerError("getting task: " + err.Error())
	}
	return t, nil
}

// Task IDs are UUIDs in every store; anything else cannot exist.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func taskNotFound() error {
	return huma.Error404NotFound("task not found")
}

// RegisterTaskRoutes registers task endpoints with the Huma API.
func RegisterTaskRoutes(api huma.API, h *TasksHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks",
		Summary:     "List tasks",
		Description: "Returns tasks newest first, optionally filtered by status and owner.",
		Tags:        []string{"tasks"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/api/v1/tasks",
		Summary:       "Create a task",
		Description:   "Creates an active task. Name, owner and keywords must not be blank.",
		Tags:          []string{"tasks"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}",
		Summary:     "Get a task",
		Tags:        []string{"tasks"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Get)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tasks/{id}",
		Summary:       "Delete a task",
		Description:   "Deletes the task and its metrics logs.",
		Tags:          []string{"tasks"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "pause-task",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{id}/pause",
		Summary:     "Pause a task",
		Tags:        []string{"tasks"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Pause)

	huma.Register(api, huma.Operation{
		OperationID: "resume-task",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{id}/resume",
		Summary:     "Resume a task",
		Tags:        []string{"tasks"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Resume)

	huma.Register(api, huma.Operation{
		OperationID: "run-task",
		Method:      http.MethodPost,
		Path:        "/api/v1/tasks/{id}/run",
		Summary:     "Run a task now",
		Description: "Estimates every keyword in the task and appends a metrics log entry.",
		Tags:        []string{"tasks"},
		Errors: []int{
			http.StatusNotFound,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, h.Run)

	huma.Register(api, huma.Operation{
		OperationID: "list-task-logs",
		Method:      http.MethodGet,
		Path:        "/api/v1/tasks/{id}/logs",
		Summary:     "List a task's metrics logs",
		Description: "Returns metrics log entries newest first.",
		Tags:        []string{"tasks"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.Logs)
}

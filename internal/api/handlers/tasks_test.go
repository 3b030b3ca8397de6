package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/keyword-tracker/internal/api/handlers"
	"github.com/donaldgifford/keyword-tracker/internal/engine"
	"github.com/donaldgifford/keyword-tracker/internal/store"
	storeMocks "github.com/donaldgifford/keyword-tracker/internal/store/mocks"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

const taskID = "0b8f6c1e-3a44-4b0e-9a53-6a2a7c5d9e10"

// fakeRunner implements TaskRunner for testing.
type fakeRunner struct {
	log *domain.MetricsLog
	err error
	got string
}

func (f *fakeRunner) RunTask(_ context.Context, id string) (*domain.MetricsLog, error) {
	f.got = id
	return f.log, f.err
}

func newTasksAPI(t *testing.T, s store.Store, r handlers.TaskRunner) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	handlers.RegisterTaskRoutes(api, handlers.NewTasksHandler(s, r))
	return api
}

func sampleTask() *domain.Task {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:            taskID,
		Name:          "Birthday cards",
		Owner:         "alice",
		Keywords:      "happy birthday, birthday card",
		Status:        domain.TaskActive,
		LastCheckedAt: &now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestTasksHandler_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		setupMock  func(*storeMocks.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name: "returns tasks",
			path: "/api/v1/tasks",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListTasks(mock.Anything, &store.TaskQuery{}).
					Return([]domain.Task{*sampleTask()}, nil).
					Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"Birthday cards"`,
		},
		{
			name: "filters pass through",
			path: "/api/v1/tasks?status=paused&owner=alice&limit=5&offset=10",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListTasks(mock.Anything, mock.MatchedBy(func(q *store.TaskQuery) bool {
						return q.Status != nil && *q.Status == domain.TaskPaused &&
							q.Owner != nil && *q.Owner == "alice" &&
							q.Limit == 5 && q.Offset == 10
					})).
					Return(nil, nil).
					Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name:       "unknown status rejected",
			path:       "/api/v1/tasks?status=archived",
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "store error",
			path: "/api/v1/tasks",
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					ListTasks(mock.Anything, mock.Anything).
					Return(nil, errors.New("db error")).
					Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `listing tasks`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockStore(t)
			tt.setupMock(ms)
			api := newTasksAPI(t, ms, &fakeRunner{})

			resp := api.Get(tt.path)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestTasksHandler_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		id         string
		setupMock  func(*storeMocks.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name: "found",
			id:   taskID,
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().GetTask(mock.Anything, taskID).Return(sampleTask(), nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"owner":"alice"`,
		},
		{
			name: "not found",
			id:   taskID,
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().GetTask(mock.Anything, taskID).Return(nil, store.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `task not found`,
		},
		{
			name:       "malformed id never reaches the store",
			id:         "not-a-uuid",
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "store error",
			id:   taskID,
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().GetTask(mock.Anything, taskID).Return(nil, errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `getting task`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockStore(t)
			tt.setupMock(ms)
			api := newTasksAPI(t, ms, &fakeRunner{})

			resp := api.Get("/api/v1/tasks/" + tt.id)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestTasksHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		setupMock  func(*storeMocks.MockStore)
		wantStatus int
		wantBody   string
	}{
		{
			name: "creates active task with trimmed fields",
			body: map[string]any{
				"name":     "  Birthday cards ",
				"owner":    "alice",
				"keywords": " happy birthday, birthday card ",
			},
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().
					CreateTask(mock.Anything, mock.MatchedBy(func(tk *domain.Task) bool {
						return tk.Name == "Birthday cards" &&
							tk.Keywords == "happy birthday, birthday card" &&
							tk.Status == domain.TaskActive
					})).
					Run(func(_ context.Context, tk *domain.Task) {
						tk.ID = taskID
					}).
					Return(nil).
					Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   taskID,
		},
		{
			name:       "missing fields rejected by schema",
			body:       map[string]any{"name": "x"},
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "blank fields rejected",
			body: map[string]any{
				"name":     "   ",
				"owner":    "alice",
				"keywords": " , ,",
			},
			setupMock:  func(_ *storeMocks.MockStore) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `must contain at least one keyword`,
		},
		{
			name: "store error",
			body: map[string]any{
				"name":     "Cats",
				"owner":    "bob",
				"keywords": "cats",
			},
			setupMock: func(m *storeMocks.MockStore) {
				m.EXPECT().CreateTask(mock.Anything, mock.Anything).Return(errors.New("db error")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `creating task`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockStore(t)
			tt.setupMock(ms)
			api := newTasksAPI(t, ms, &fakeRunner{})

			resp := api.Post("/api/v1/tasks", tt.body)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestTasksHandler_PauseResume(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action     string
		status     domain.TaskStatus
		storeErr   error
		wantStatus int
	}{
		{action: "pause", status: domain.TaskPaused, wantStatus: http.StatusOK},
		{action: "resume", status: domain.TaskActive, wantStatus: http.StatusOK},
		{action: "pause", status: domain.TaskPaused, storeErr: store.ErrNotFound, wantStatus: http.StatusNotFound},
		{action: "resume", status: domain.TaskActive, storeErr: errors.New("db"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.action, tt.wantStatus), func(t *testing.T) {
			t.Parallel()

			ms := storeMocks.NewMockStore(t)
			ms.EXPECT().SetTaskStatus(mock.Anything, taskID, tt.status).Return(tt.storeErr).Once()
			api := newTasksAPI(t, ms, &fakeRunner{})

			resp := api.Post("/api/v1/tasks/"+taskID+"/"+tt.action)
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, resp.Body.String(), fmt.Sprintf(`"status":"%s"`, tt.status))
			}
		})
	}
}

func TestTasksHandler_Delete(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.EXPECT().DeleteTask(mock.Anything, taskID).Return(nil).Once()
	api := newTasksAPI(t, ms, &fakeRunner{})

	resp := api.Delete("/api/v1/tasks/" + taskID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	ms = storeMocks.NewMockStore(t)
	ms.EXPECT().DeleteTask(mock.Anything, taskID).Return(store.ErrNotFound).Once()
	api = newTasksAPI(t, ms, &fakeRunner{})

	resp = api.Delete("/api/v1/tasks/" + taskID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestTasksHandler_Run(t *testing.T) {
	t.Parallel()

	recorded := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		runner     *fakeRunner
		wantStatus int
		wantBody   string
	}{
		{
			name: "returns written log",
			runner: &fakeRunner{log: &domain.MetricsLog{
				ID:         "log-1",
				TaskID:     taskID,
				RecordedAt: recorded,
				Keywords:   []domain.KeywordResult{{Keyword: "happy birthday"}},
			}},
			wantStatus: http.StatusOK,
			wantBody:   `"log-1"`,
		},
		{
			name:       "unknown task",
			runner:     &fakeRunner{err: fmt.Errorf("getting task: %w", store.ErrNotFound)},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "task without keywords",
			runner:     &fakeRunner{err: engine.ErrNoKeywords},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `task has no keywords`,
		},
		{
			name:       "append failure",
			runner:     &fakeRunner{err: errors.New("appending metrics log: db")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `running task`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newTasksAPI(t, storeMocks.NewMockStore(t), tt.runner)

			resp := api.Post("/api/v1/tasks/"+taskID+"/run")
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Contains(t, resp.Body.String(), tt.wantBody)
			assert.Equal(t, taskID, tt.runner.got)
		})
	}
}

func TestTasksHandler_Logs(t *testing.T) {
	t.Parallel()

	t.Run("returns history", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().GetTask(mock.Anything, taskID).Return(sampleTask(), nil).Once()
		ms.EXPECT().ListLogs(mock.Anything, taskID, 5).Return([]domain.MetricsLog{
			{ID: "log-2", TaskID: taskID},
			{ID: "log-1", TaskID: taskID},
		}, nil).Once()
		api := newTasksAPI(t, ms, &fakeRunner{})

		resp := api.Get("/api/v1/tasks/" + taskID + "/logs?limit=5")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Contains(t, resp.Body.String(), `"log-2"`)
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().GetTask(mock.Anything, taskID).Return(nil, store.ErrNotFound).Once()
		api := newTasksAPI(t, ms, &fakeRunner{})

		resp := api.Get("/api/v1/tasks/" + taskID + "/logs")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		ms := storeMocks.NewMockStore(t)
		ms.EXPECT().GetTask(mock.Anything, taskID).Return(sampleTask(), nil).Once()
		ms.EXPECT().ListLogs(mock.Anything, taskID, 0).Return(nil, nil).Once()
		api := newTasksAPI(t, ms, &fakeRunner{})

		resp := api.Get("/api/v1/tasks/" + taskID + "/logs")
		require.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `[]`, resp.Body.String())
	})
}

package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/keyword-tracker/internal/api/handlers"
	"github.com/donaldgifford/keyword-tracker/internal/engine"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

type fakeJobRuns struct {
	latest  []domain.JobRun
	history []domain.JobRun
	err     error

	gotJob   string
	gotLimit int
}

func (f *fakeJobRuns) ListLatestJobRuns(context.Context) ([]domain.JobRun, error) {
	return f.latest, f.err
}

func (f *fakeJobRuns) ListJobRuns(_ context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	f.gotJob, f.gotLimit = jobName, limit
	return f.history, f.err
}

func jobRun(name, status string, age time.Duration) domain.JobRun {
	return domain.JobRun{
		ID:        name + "-" + status,
		JobName:   name,
		StartedAt: time.Now().Add(-age).Truncate(time.Second),
		Status:    status,
	}
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fake      *fakeJobRuns
		wantCode  int
		wantNames []string
		wantErr   string
	}{
		{
			name: "sorted by job name",
			fake: &fakeJobRuns{latest: []domain.JobRun{
				jobRun(engine.JobLogRetention, "succeeded", time.Hour),
				jobRun(engine.JobBatch, "running", time.Minute),
			}},
			wantCode:  http.StatusOK,
			wantNames: []string{engine.JobBatch, engine.JobLogRetention},
		},
		{
			name:      "no runs yet",
			fake:      &fakeJobRuns{},
			wantCode:  http.StatusOK,
			wantNames: []string{},
		},
		{
			name:     "store failure",
			fake:     &fakeJobRuns{err: errors.New("conn reset")},
			wantCode: http.StatusInternalServerError,
			wantErr:  "listing job runs: conn reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(tt.fake))

			resp := api.Get("/api/v1/jobs")
			require.Equal(t, tt.wantCode, resp.Code)

			if tt.wantErr != "" {
				assert.Contains(t, resp.Body.String(), tt.wantErr)
				return
			}

			var runs []domain.JobRun
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &runs))
			names := make([]string, 0, len(runs))
			for _, r := range runs {
				names = append(names, r.JobName)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestGetJobHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		fake      *fakeJobRuns
		wantCode  int
		wantJob   string
		wantLimit int
		wantLen   int
	}{
		{
			name: "default limit",
			path: "/api/v1/jobs/batch",
			fake: &fakeJobRuns{history: []domain.JobRun{
				jobRun(engine.JobBatch, "failed", time.Minute),
				jobRun(engine.JobBatch, "succeeded", time.Hour),
			}},
			wantCode:  http.StatusOK,
			wantJob:   engine.JobBatch,
			wantLimit: 20,
			wantLen:   2,
		},
		{
			name:      "explicit limit with no history",
			path:      "/api/v1/jobs/log_retention?limit=5",
			fake:      &fakeJobRuns{},
			wantCode:  http.StatusOK,
			wantJob:   engine.JobLogRetention,
			wantLimit: 5,
		},
		{
			name:     "unknown job rejected before the store",
			path:     "/api/v1/jobs/reindex",
			fake:     &fakeJobRuns{},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "limit above maximum",
			path:     "/api/v1/jobs/batch?limit=500",
			fake:     &fakeJobRuns{},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "store failure",
			path:      "/api/v1/jobs/batch",
			fake:      &fakeJobRuns{err: errors.New("timeout")},
			wantCode:  http.StatusInternalServerError,
			wantJob:   engine.JobBatch,
			wantLimit: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(tt.fake))

			resp := api.Get(tt.path)
			require.Equal(t, tt.wantCode, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantJob, tt.fake.gotJob)
			assert.Equal(t, tt.wantLimit, tt.fake.gotLimit)

			if tt.wantCode != http.StatusOK {
				return
			}
			var runs []domain.JobRun
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &runs))
			assert.Len(t, runs, tt.wantLen)
		})
	}
}

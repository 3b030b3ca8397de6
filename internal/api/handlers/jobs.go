package handlers

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/keyword-tracker/internal/engine"
	domain "github.com/donaldgifford/keyword-tracker/pkg/types"
)

// JobsProvider is the slice of the store the jobs endpoints read from.
type JobsProvider interface {
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
}

// JobsHandler exposes scheduler run history.
type JobsHandler struct {
	store JobsProvider
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s JobsProvider) *JobsHandler {
	return &JobsHandler{store: s}
}

// JobRunsOutput is a list of job run records.
type JobRunsOutput struct {
	Body []domain.JobRun
}

// JobHistoryInput selects one scheduled job.
type JobHistoryInput struct {
	JobName string `path:"job_name" enum:"batch,log_retention" doc:"Scheduled job name"`
	Limit   int    `query:"limit"   minimum:"1" maximum:"200" default:"20" doc:"Runs to return, newest first"`
}

// ListJobs returns the latest run of every job that has run at least once,
// ordered by job name.
func (h *JobsHandler) ListJobs(ctx context.Context, _ *struct{}) (*JobRunsOutput, error) {
	runs, err := h.store.ListLatestJobRuns(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing job runs: " + err.Error())
	}

	runs = slices.Clone(runs)
	slices.SortStableFunc(runs, func(a, b domain.JobRun) int {
		return strings.Compare(a.JobName, b.JobName)
	})

	return &JobRunsOutput{Body: nonNilRuns(runs)}, nil
}

// GetJobHistory returns recent runs of a single job.
func (h *JobsHandler) GetJobHistory(ctx context.Context, in *JobHistoryInput) (*JobRunsOutput, error) {
	runs, err := h.store.ListJobRuns(ctx, in.JobName, in.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing " + in.JobName + " runs: " + err.Error())
	}
	return &JobRunsOutput{Body: nonNilRuns(runs)}, nil
}

func nonNilRuns(runs []domain.JobRun) []domain.JobRun {
	if runs == nil {
		return []domain.JobRun{}
	}
	return runs
}

// RegisterJobRoutes registers the scheduler history endpoints.
func RegisterJobRoutes(api huma.API, h *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "Latest run of each scheduled job",
		Tags:        []string{"scheduler"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "get-job-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{job_name}",
		Summary:     "Run history of a scheduled job",
		Description: "Known jobs are " + engine.JobBatch + " and " + engine.JobLogRetention + ".",
		Tags:        []string{"scheduler"},
		Errors:      []int{http.StatusUnprocessableEntity, http.StatusInternalServerError},
	}, h.GetJobHistory)
}
